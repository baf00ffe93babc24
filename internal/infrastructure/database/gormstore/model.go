package gormstore

import "customer-service/internal/domain/customer"

type customerModel struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null;uniqueIndex:customers_email_unique"`
	Age   int    `gorm:"not null"`
}

func (customerModel) TableName() string {
	return "customers"
}

func fromDomain(c *customer.Customer) customerModel {
	return customerModel{
		ID:    c.ID,
		Name:  c.Name,
		Email: c.Email,
		Age:   c.Age,
	}
}

func (m customerModel) toDomain() *customer.Customer {
	return &customer.Customer{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
		Age:   m.Age,
	}
}
