package schema

// CoreImageTable represents the 'core.image' table
type CoreImageTable struct {
	Table        string
	ID           string
	Title        string
	Description  string
	URL          string
	ThumbnailURL string
	CategoryID   string
	SeriesID     string
	Featured     string
	SortOrder    string
	Views        string
	Likes        string
	Status       string
	CreatedAt    string
	UpdatedAt    string
}

// CoreImage is the schema definition for core.image
var CoreImage = CoreImageTable{
	Table:        "core.image",
	ID:           "id",
	Title:        "title",
	Description:  "description",
	URL:          "url",
	ThumbnailURL: "thumbnailurl",
	CategoryID:   "categoryid",
	SeriesID:     "seriesid",
	Featured:     "featured",
	SortOrder:    "sortorder",
	Views:        "views",
	Likes:        "likes",
	Status:       "status",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

func (t CoreImageTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Description, t.URL, t.ThumbnailURL, t.CategoryID, t.SeriesID,
		t.Featured, t.SortOrder, t.Views, t.Likes, t.Status, t.CreatedAt, t.UpdatedAt,
	}
}
