package schema

// CoreSeriesTable represents the 'core.series' table
type CoreSeriesTable struct {
	Table        string
	ID           string
	Title        string
	Slug         string
	Description  string
	Images       string
	CoverImageID string
	CategoryID   string
	Featured     string
	Status       string
	CreatedAt    string
	UpdatedAt    string
}

// CoreSeries is the schema definition for core.series.
// Images is an ordered uuid[]; its order is the display order.
var CoreSeries = CoreSeriesTable{
	Table:        "core.series",
	ID:           "id",
	Title:        "title",
	Slug:         "slug",
	Description:  "description",
	Images:       "images",
	CoverImageID: "coverimageid",
	CategoryID:   "categoryid",
	Featured:     "featured",
	Status:       "status",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

func (t CoreSeriesTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Description, t.Images, t.CoverImageID, t.CategoryID,
		t.Featured, t.Status, t.CreatedAt, t.UpdatedAt,
	}
}
