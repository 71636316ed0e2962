package zabbix

import "strings"

// SplitKey turns a dotted item key such as "Status.UpdateCount" into a
// property path. The empty key is the empty path.
func SplitKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, ".")
}

// Resolve walks path starting at root and returns the value found at the end.
// A missing property, or a step through something that is not an object,
// yields Null. The empty path returns root unchanged.
func Resolve(root Value, path []string) Value {
	cur := root
	for _, name := range path {
		obj, ok := cur.Object()
		if !ok {
			return Null
		}
		next, ok := obj.Property(name)
		if !ok {
			return Null
		}
		cur = next
	}
	return cur
}
