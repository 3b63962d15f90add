package domain

// RoomType is a category of rooms sharing price, capacity and inventory,
// not an individual physical room. RoomCount nil means the inventory for
// this type is unknown/unmanaged; availability against it is undefined.
type RoomType struct {
	ID          int64
	Name        string
	Price       *float64
	Capacity    *int
	IsVIP       *bool
	RoomCount   *int
	Description *string
}
