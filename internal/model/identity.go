package model

// IdentityAccount is a portal login managed by the local identity provider.
type IdentityAccount struct {
	ID       string `gorm:"column:id;primaryKey;size:36"`
	Email    string `gorm:"column:email;size:255;not null;uniqueIndex:idx_identity_account_email"`
	Password string `gorm:"column:password;size:60;not null"` // bcrypt hash
	Enabled  bool   `gorm:"column:enabled;not null"`
	Groups   string `gorm:"column:group_names;size:255;not null"` // comma separated

	BaseEntity
}

// TableName specifies the table name for IdentityAccount
func (*IdentityAccount) TableName() string {
	return "identity_account"
}
