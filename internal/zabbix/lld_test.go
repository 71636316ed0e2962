package zabbix

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestEmitDiscoveryJSON(t *testing.T) {
	t.Run("single compact entry", func(t *testing.T) {
		items := []Object{newTestObject("NAME", StringValue("G1"), "ID", StringValue("abc"))}
		got := EmitDiscoveryJSON(items, []string{"NAME", "ID"}, false)
		want := `{"data":[{"{#NAME}":"G1", "{#ID}":"abc"}]}`
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("macros are upper-cased", func(t *testing.T) {
		items := []Object{newTestObject("Name", StringValue("All Computers"), "Id", StringValue("x"))}
		got := EmitDiscoveryJSON(items, []string{"Name", "Id"}, false)
		want := `{"data":[{"{#NAME}":"All Computers", "{#ID}":"x"}]}`
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("entries separated without trailing comma", func(t *testing.T) {
		items := []Object{
			newTestObject("Name", StringValue("G1")),
			newTestObject("Name", StringValue("G2")),
		}
		got := EmitDiscoveryJSON(items, []string{"Name"}, false)
		want := `{"data":[{"{#NAME}":"G1"},{"{#NAME}":"G2"}]}`
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("nil items skipped", func(t *testing.T) {
		items := []Object{nil, newTestObject("Name", StringValue("G1")), nil}
		got := EmitDiscoveryJSON(items, []string{"Name"}, false)
		want := `{"data":[{"{#NAME}":"G1"}]}`
		if got != want {
			t.Errorf("got  %s\nwant %s", got, want)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := EmitDiscoveryJSON(nil, []string{"Name"}, false); got != `{"data":[]}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("no properties selected", func(t *testing.T) {
		items := []Object{newTestObject("Name", StringValue("G1"))}
		if got := EmitDiscoveryJSON(items, nil, false); got != `{"data":[]}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("values escaped and typed", func(t *testing.T) {
		id := uuid.MustParse("b73ca6ed-5727-47f3-84de-015e03f6a88a")
		items := []Object{newTestObject(
			"Name", StringValue(`Servers "DMZ" \ core`),
			"Id", GUIDValue(id),
			"Enabled", BoolValue(true),
			"Count", IntValue(7),
			"Missing", Null,
		)}
		got := EmitDiscoveryJSON(items, []string{"Name", "Id", "Enabled", "Count", "Missing", "Absent"}, false)
		assertValidJSON(t, got)

		var doc struct {
			Data []map[string]any `json:"data"`
		}
		if err := json.Unmarshal([]byte(got), &doc); err != nil {
			t.Fatal(err)
		}
		entry := doc.Data[0]
		if entry["{#NAME}"] != `Servers "DMZ" \ core` {
			t.Errorf("{#NAME} = %v", entry["{#NAME}"])
		}
		if entry["{#ID}"] != id.String() {
			t.Errorf("{#ID} = %v", entry["{#ID}"])
		}
		if entry["{#ENABLED}"] != float64(1) {
			t.Errorf("{#ENABLED} = %v", entry["{#ENABLED}"])
		}
		if entry["{#COUNT}"] != float64(7) {
			t.Errorf("{#COUNT} = %v", entry["{#COUNT}"])
		}
		if entry["{#MISSING}"] != "" || entry["{#ABSENT}"] != "" {
			t.Errorf("null values should render as empty strings: %v", entry)
		}
	})

	t.Run("pretty is valid json on several lines", func(t *testing.T) {
		items := []Object{
			newTestObject("Name", StringValue("G1"), "Id", StringValue("a")),
			newTestObject("Name", StringValue("G2"), "Id", StringValue("b")),
		}
		got := EmitDiscoveryJSON(items, []string{"Name", "Id"}, true)
		assertValidJSON(t, got)
		if !strings.Contains(got, "\n") || !strings.Contains(got, "\t") {
			t.Errorf("pretty output should contain newlines and indentation:\n%s", got)
		}
		if strings.Contains(got, ",\n\t]") || strings.Contains(got, ",\n\t\t}") {
			t.Errorf("trailing comma in pretty output:\n%s", got)
		}
	})

	t.Run("pretty empty is valid json", func(t *testing.T) {
		assertValidJSON(t, EmitDiscoveryJSON(nil, []string{"Name"}, true))
	})
}

func assertValidJSON(t *testing.T, s string) {
	t.Helper()
	if !json.Valid([]byte(s)) {
		t.Fatalf("invalid JSON:\n%s", s)
	}
}
