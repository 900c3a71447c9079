package customers

type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	Mobile  string `json:"mobile" validate:"max=20"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Mobile  *string `json:"mobile,omitempty" validate:"omitempty,max=20"`
}

type ListCustomersRequest struct {
	Search string `json:"search"`
	Page   int    `json:"page" validate:"gte=0"`
}
