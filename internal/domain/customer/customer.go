package customer

type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

type RegistrationRequest struct {
	Name  string
	Email string
	Age   int
}

// UpdateRequest carries the fields a caller wants replaced. A nil field is left unchanged.
type UpdateRequest struct {
	Name  *string
	Email *string
	Age   *int
}

func NewCustomer(req RegistrationRequest) *Customer {
	return &Customer{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	}
}

// customerChanges is the result of diffing an UpdateRequest against a stored customer.
type customerChanges struct {
	name  *string
	email *string
	age   *int
}

func (c customerChanges) any() bool {
	return c.name != nil || c.email != nil || c.age != nil
}

// diff keeps only the requested fields whose value differs from the current one.
func diff(current Customer, req UpdateRequest) customerChanges {
	var ch customerChanges
	if req.Name != nil && *req.Name != current.Name {
		ch.name = req.Name
	}
	if req.Age != nil && *req.Age != current.Age {
		ch.age = req.Age
	}
	if req.Email != nil && *req.Email != current.Email {
		ch.email = req.Email
	}
	return ch
}

// apply returns a copy of current with the changes applied. current is not modified.
func (c customerChanges) apply(current Customer) Customer {
	next := current
	if c.name != nil {
		next.Name = *c.name
	}
	if c.age != nil {
		next.Age = *c.age
	}
	if c.email != nil {
		next.Email = *c.email
	}
	return next
}
