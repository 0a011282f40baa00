package types

// Profile is a person money is split with or lent to. One profile may be
// flagged as the user themself.
type Profile struct {
	RowMeta
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	IsSelf bool   `json:"is_self"`
}

// Record converts the profile into column values. Empty email and phone
// are stored as NULL so they never match as natural keys.
func (p Profile) Record() Record {
	return withID(Record{
		"name":    p.Name,
		"email":   nullString(p.Email),
		"phone":   nullString(p.Phone),
		"is_self": p.IsSelf,
	}, p.ID)
}

// ProfileFromRecord hydrates a Profile from a profiles row.
func ProfileFromRecord(r Record) Profile {
	return Profile{
		RowMeta: MetaFromRecord(r),
		Name:    r.String("name"),
		Email:   r.String("email"),
		Phone:   r.String("phone"),
		IsSelf:  r.Bool("is_self"),
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
