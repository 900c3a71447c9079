package inventory

type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=1000"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
	Unit        Unit    `json:"unit" validate:"required,oneof=kg litre nos"`
}

type UpdateItemRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Quantity    *int     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Unit        *Unit    `json:"unit,omitempty" validate:"omitempty,oneof=kg litre nos"`
}

type ListItemsRequest struct {
	Search string `json:"search"`
	Page   int    `json:"page" validate:"gte=0"`
}
