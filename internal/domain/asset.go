package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultAssetVersion is assigned to assets created without an explicit version
const DefaultAssetVersion = "1.0.0"

// Asset Model
type Asset struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`                             // Primary key, creation sequence
	Title         string                      `gorm:"size:100;not null" json:"title"`                   // Listing title
	Description   string                      `gorm:"type:text;not null" json:"description"`            // Listing description
	Category      Category                    `gorm:"size:32;not null;index" json:"category"`           // One of the fixed categories
	Price         float64                     `gorm:"not null;default:0" json:"price"`                  // Ignored when IsFree
	IsFree        bool                        `gorm:"not null;default:false;index" json:"isFree"`       // Free download flag
	SellerID      uint                        `gorm:"not null;index" json:"sellerId"`                   // Owning user, immutable
	Seller        *User                       `gorm:"foreignKey:SellerID" json:"-"`                     // Populated at read time
	FileURL       string                      `gorm:"size:512;not null" json:"fileUrl"`                 // Stored archive location
	PreviewImages datatypes.JSONSlice[string] `gorm:"type:json" json:"previewImages"`                   // Stored preview locations
	DemoURL       string                      `gorm:"size:512" json:"demoUrl"`                          // Optional live demo
	Tags          datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`                            // Free-form tags
	Features      datatypes.JSONSlice[string] `gorm:"type:json" json:"features"`                        // Feature bullet points
	Technologies  datatypes.JSONSlice[string] `gorm:"type:json" json:"technologies"`                    // Technologies used
	Requirements  string                      `gorm:"type:text" json:"requirements"`                    // Free-form requirements
	IsApproved    bool                        `gorm:"not null;default:false;index" json:"isApproved"`   // Gates public listing
	IsFeatured    bool                        `gorm:"not null;default:false;index" json:"isFeatured"`   // Homepage promotion
	DownloadCount int64                       `gorm:"not null;default:0" json:"downloadCount"`          // Never decremented
	Version       string                      `gorm:"size:32;not null;default:'1.0.0'" json:"version"` // Asset version
	CreatedAt     time.Time                   `gorm:"index" json:"createdAt"`                           // Creation time
}

// Listable reports whether the asset may appear in public listings
func (a *Asset) Listable() bool {
	return a.IsApproved
}

// OwnedBy reports whether userID is the asset's seller
func (a *Asset) OwnedBy(userID uint) bool {
	return a.SellerID == userID
}

// Review Model
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`            // Primary key
	AssetID   uint      `gorm:"not null;index" json:"assetId"`   // Reviewed asset
	UserID    uint      `gorm:"not null;index" json:"userId"`    // Reviewer
	User      *User     `gorm:"foreignKey:UserID" json:"-"`      // Populated at read time
	Rating    int       `gorm:"not null" json:"rating"`          // 1 to 5
	Comment   string    `gorm:"type:text" json:"comment"`        // Optional comment
	CreatedAt time.Time `json:"createdAt"`                       // Creation time
}
