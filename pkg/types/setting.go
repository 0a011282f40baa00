package types

// Setting is one key/value row of the config table.
type Setting struct {
	RowMeta
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingFromRecord hydrates a Setting from a config row.
func SettingFromRecord(r Record) Setting {
	return Setting{
		RowMeta: MetaFromRecord(r),
		Key:     r.String("key"),
		Value:   r.String("value"),
	}
}

// Well-known config keys.
const (
	SettingDeviceID = "device_id"
)
