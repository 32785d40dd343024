package entity

const (
	AdStatusPending  = "pending"
	AdStatusApproved = "approved"
	AdStatusActive   = "active"
	AdStatusRejected = "rejected"
	AdStatusSold     = "sold"
)

type AdImage struct {
	URL          string `json:"url" firestore:"url" bson:"url"`
	DisplayOrder int    `json:"display_order" firestore:"displayOrder" bson:"displayOrder"`
}

// Ad is the part of an advertisement the messaging service reads. It never
// writes ads.
type Ad struct {
	ID       string    `json:"id" firestore:"id" bson:"_id"`
	SellerID string    `json:"seller_id" firestore:"sellerId" bson:"sellerId"`
	Title    string    `json:"title" firestore:"title" bson:"title"`
	Status   string    `json:"status" firestore:"status" bson:"status"`
	Images   []AdImage `json:"images" firestore:"images" bson:"images"`
}

type AdSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// AcceptsMessages reports whether buyers may start or continue a thread.
func (a *Ad) AcceptsMessages() bool {
	return a.Status == AdStatusApproved || a.Status == AdStatusActive
}

// Thumbnail is the URL of the image with the lowest display order.
func (a *Ad) Thumbnail() string {
	var thumb *AdImage
	for i := range a.Images {
		if thumb == nil || a.Images[i].DisplayOrder < thumb.DisplayOrder {
			thumb = &a.Images[i]
		}
	}
	if thumb == nil {
		return ""
	}
	return thumb.URL
}

func (a *Ad) Summary() *AdSummary {
	return &AdSummary{
		ID:        a.ID,
		Title:     a.Title,
		Thumbnail: a.Thumbnail(),
	}
}
