package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin  = "admin"
	RoleCajero = "cajero"
	RoleMesero = "mesero"
)

// User representa un usuario del sistema (operador del POS).
type User struct {
	ID           string
	RestaurantID string
	Email        string
	PasswordHash string
	Name         string
	Role         string // ver constantes Role*
	Status       string // active, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
