package wsus

import (
	"fmt"
	"strings"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

// scriptPrelude connects to the administration API. Placeholders: server
// literal, $true/$false, port.
const scriptPrelude = `$ErrorActionPreference = 'Stop'
$ProgressPreference = 'SilentlyContinue'
[Console]::OutputEncoding = [System.Text.Encoding]::UTF8
[void][Reflection.Assembly]::LoadWithPartialName('Microsoft.UpdateServices.Administration')
$wsus = [Microsoft.UpdateServices.Administration.AdminProxy]::GetUpdateServer(%s, %s, %d)
if ($null -eq $wsus) { throw 'GetUpdateServer returned no server handle' }
`

const (
	probeBody = `ConvertTo-Json -Compress -InputObject ([pscustomobject]@{
	Name    = $wsus.Name
	Version = $wsus.Version.ToString()
})`

	infoBody = `$wsus | Select-Object -Property * -ExcludeProperty Parent |
	ConvertTo-Json -Compress -Depth 2`

	statusBody = `$wsus.GetStatus() | ConvertTo-Json -Compress -Depth 2`

	databaseBody = `$wsus.GetDatabaseConfiguration() | ConvertTo-Json -Compress -Depth 2`

	configurationBody = `$wsus.GetConfiguration() | ConvertTo-Json -Compress -Depth 2`

	computerGroupsBody = `$updateScope = New-Object Microsoft.UpdateServices.Administration.UpdateScope
$groups = foreach ($g in $wsus.GetComputerTargetGroups()) {
	$computerScope = New-Object Microsoft.UpdateServices.Administration.ComputerTargetScope
	[void]$computerScope.ComputerTargetGroups.Add($g)
	$summaries = foreach ($s in $wsus.GetSummariesPerComputerTarget($updateScope, $computerScope)) {
		[pscustomobject]@{
			ComputerTargetId            = $s.ComputerTargetId
			FailedCount                 = $s.FailedCount
			NotInstalledCount           = $s.NotInstalledCount
			DownloadedCount             = $s.DownloadedCount
			InstalledPendingRebootCount = $s.InstalledPendingRebootCount
			UnknownCount                = $s.UnknownCount
			InstalledCount              = $s.InstalledCount
		}
	}
	[pscustomobject]@{
		Id          = $g.Id.ToString()
		Name        = $g.Name
		Description = $g.Description
		Summaries   = @($summaries)
	}
}
ConvertTo-Json -Compress -Depth 4 -InputObject @($groups)`

	lastSynchronizationBody = `$wsus.GetSubscription().GetLastSynchronizationInfo() |
	Select-Object -Property * -ExcludeProperty UpdateServer |
	ConvertTo-Json -Compress -Depth 2`

	synchronizationStatusBody = `$subscription = $wsus.GetSubscription()
$progress = $subscription.GetSynchronizationProgress()
ConvertTo-Json -Compress -Depth 2 -InputObject ([pscustomobject]@{
	Status                   = $subscription.GetSynchronizationStatus().ToString()
	Phase                    = $progress.Phase.ToString()
	ProcessedItems           = $progress.ProcessedItems
	TotalItems               = $progress.TotalItems
	LastSynchronizationTime  = $subscription.LastSynchronizationTime
	SynchronizeAutomatically = $subscription.SynchronizeAutomatically
})`
)

// buildScript prefixes body with the connection prelude for cfg.
func buildScript(cfg config.WSUSConfig, body string) string {
	useSSL := "$false"
	if cfg.UseSSL {
		useSSL = "$true"
	}
	return fmt.Sprintf(scriptPrelude, psQuote(cfg.Server), useSSL, cfg.Port) + body + "\n"
}

// psQuote renders s as a single-quoted PowerShell string literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
