package models

// Category is one of the fixed event categories a post can be tagged with.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Categories is the closed list of categories offered when creating a post.
var Categories = []Category{
	{ID: 1, Name: "Програмирање и технологија", Image: "/Images/BasketBall.png"},
	{ID: 2, Name: "Спорт и фитнес", Image: "/Images/Tennis.png"},
	{ID: 3, Name: "Музика и забава", Image: "/Images/PingPong.png"},
	{ID: 4, Name: "Бизнис", Image: "/Images/SoccerBall.png"},
	{ID: 5, Name: "Уметност и култура", Image: "/Images/Trekking.png"},
	{ID: 6, Name: "Другo", Image: "/Images/Puzzle.png"},
}

// IsCategory reports whether name is one of Categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}
