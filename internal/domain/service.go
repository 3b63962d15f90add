package domain

// Service price is a pointer: an unset price is "price unknown", which is
// not the same thing as a free (price 0) service.
type Service struct {
	ID    int64
	Name  string
	Price *float64
}

// Free reports whether the service is complimentary. Unknown price is not free.
func (s Service) Free() bool { return s.Price != nil && *s.Price == 0 }

type StaffService struct {
	StaffID   int64
	ServiceID int64
	IsBasic   *bool
}
