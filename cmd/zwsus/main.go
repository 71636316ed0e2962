package main

import "github.com/kidoz/zabbix-wsus-go/cmd"

func main() {
	cmd.Execute()
}
