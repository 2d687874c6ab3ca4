package domain

import "time"

// Social holds the public social links of a user
type Social struct {
	GitHub   string `json:"github"`   // GitHub profile
	Twitter  string `json:"twitter"`  // Twitter profile
	LinkedIn string `json:"linkedin"` // LinkedIn profile
}

// User Model
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                                // Primary key
	Name       string    `gorm:"size:100;not null" json:"name"`                       // Display name
	Email      string    `gorm:"size:191;uniqueIndex;not null" json:"email"`          // Unique email
	Password   string    `gorm:"not null" json:"-"`                                   // Hashed password, never serialized
	Role       Role      `gorm:"size:16;not null;default:buyer;index" json:"role"`    // Role: admin, seller or buyer
	Bio        string    `gorm:"type:text" json:"bio"`                                // Free-form bio
	Avatar     string    `gorm:"size:512" json:"avatar"`                              // Avatar location
	Website    string    `gorm:"size:512" json:"website"`                             // Personal website
	Social     Social    `gorm:"embedded;embeddedPrefix:social_" json:"social"`       // Social links
	IsVerified bool      `gorm:"not null;default:false" json:"isVerified"`            // Verified seller badge
	CreatedAt  time.Time `json:"createdAt"`                                           // Registration time
}

// WishlistItem links a user to an asset they saved. The (user, asset) pair is unique
// and the primary key keeps insertion order.
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"`                                   // Primary key, insertion order
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_asset"` // Owning user
	AssetID   uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_asset"` // Saved asset
	CreatedAt time.Time // Time the asset was saved
}
