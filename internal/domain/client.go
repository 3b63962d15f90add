package domain

type Client struct {
	ID             int64
	Name           string
	Contact        *string
	IsTrusted      *bool // nil = staff never vetted this client
	PassportNumber string
}

type Staff struct {
	ID             int64
	Specialization string
	Description    *string
}
