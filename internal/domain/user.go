package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Hash     string `db:"password_hash" json:"-"`
	Role     string `db:"role" json:"-"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
