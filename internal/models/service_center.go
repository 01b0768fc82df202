package models

import "time"

// ServiceCenter is a physical workshop location.
// Maps to the `service_centers` table.
type ServiceCenter struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Address    string    `db:"address" json:"address"`
	Phone      string    `db:"phone" json:"phone"`
	Region     string    `db:"region" json:"region"`
	Latitude   *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64  `db:"longitude" json:"longitude,omitempty"`
	CreateTime time.Time `db:"create_time" json:"create_time"`
	ChangeTime time.Time `db:"change_time" json:"change_time"`
}
