package models

// Post represents an event listing. It is stored in the "posts" collection of
// either Firestore or MongoDB, so it carries tags for both.
type Post struct {
	ID           string   `json:"id" firestore:"-" bson:"_id,omitempty"`
	Title        string   `json:"title" firestore:"title" bson:"title"`
	Desc         string   `json:"desc" firestore:"desc" bson:"desc"`
	Date         string   `json:"date,omitempty" firestore:"date,omitempty" bson:"date,omitempty"`
	Time         string   `json:"time,omitempty" firestore:"time,omitempty" bson:"time,omitempty"`
	Location     string   `json:"location" firestore:"location" bson:"location"`
	Zip          string   `json:"zip,omitempty" firestore:"zip,omitempty" bson:"zip,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty" firestore:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty" firestore:"longitude,omitempty" bson:"longitude,omitempty"`
	Image        string   `json:"image" firestore:"image" bson:"image"`
	UserImage    string   `json:"userImage,omitempty" firestore:"userImage,omitempty" bson:"userImage,omitempty"`
	UserName     string   `json:"userName,omitempty" firestore:"userName,omitempty" bson:"userName,omitempty"`
	Email        string   `json:"email,omitempty" firestore:"email,omitempty" bson:"email,omitempty"`
	Game         string   `json:"game,omitempty" firestore:"game,omitempty" bson:"game,omitempty"`
	CreatedAt    int64    `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
	LastModified int64    `json:"lastModified" firestore:"lastModified" bson:"lastModified"`
	// TimeAgo is filled in on reads and never stored.
	TimeAgo string `json:"timeAgo,omitempty" firestore:"-" bson:"-"`
}

// HasCoordinates reports whether the post location was resolved automatically.
func (p *Post) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// CreatePostRequest defines the request body for creating a new post.
// Required-field presence (title, location) is checked by the service so the
// caller gets the dedicated "Missing required fields" error.
type CreatePostRequest struct {
	Title     string   `json:"title" validate:"omitempty,max=35"`
	Desc      string   `json:"desc" validate:"omitempty,max=1000"`
	Date      string   `json:"date,omitempty"`
	Time      string   `json:"time,omitempty" validate:"omitempty,max=16"`
	Location  string   `json:"location" validate:"omitempty,max=200"`
	Zip       string   `json:"zip,omitempty" validate:"omitempty,zip"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Image     string   `json:"image,omitempty" validate:"omitempty,url"`
	Game      string   `json:"game,omitempty" validate:"omitempty,category"`
}

// UpdatePostRequest is the PUT /api/posts body. Only the fields editable inline
// are accepted; a nil pointer means "leave unchanged".
type UpdatePostRequest struct {
	ID       string  `json:"id"`
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=35"`
	Date     *string `json:"date,omitempty"`
	Time     *string `json:"time,omitempty" validate:"omitempty,max=16"`
	Location *string `json:"location,omitempty" validate:"omitempty,min=1,max=200"`
	Desc     *string `json:"desc,omitempty" validate:"omitempty,max=1000"`
	Image    *string `json:"image,omitempty" validate:"omitempty,url"`
}

// Fields returns the patch as store field names. Only present fields are included.
func (r *UpdatePostRequest) Fields() map[string]any {
	fields := make(map[string]any)
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.Date != nil {
		fields["date"] = *r.Date
	}
	if r.Time != nil {
		fields["time"] = *r.Time
	}
	if r.Location != nil {
		fields["location"] = *r.Location
	}
	if r.Desc != nil {
		fields["desc"] = *r.Desc
	}
	if r.Image != nil {
		fields["image"] = *r.Image
	}
	return fields
}

// Pagination is returned alongside every post listing.
type Pagination struct {
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	Current int   `json:"current"`
}

// PostsPage is the GET /api/posts response body.
type PostsPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}
