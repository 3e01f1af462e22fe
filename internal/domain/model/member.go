package model

type Member struct {
	ID       int64
	Name     string
	IsBot    bool
	Roles    []string
	Elevated bool
}

func (m Member) Principal() Principal {
	return Principal{ID: m.ID, Name: m.Name}
}
