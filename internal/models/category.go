package models

type Category string

const (
	CategoryMusic         Category = "Music"
	CategorySports        Category = "Sports"
	CategoryArtsTheater   Category = "Arts & Theater"
	CategoryFamily        Category = "Family"
	CategoryComedy        Category = "Comedy"
	CategoryFestivals     Category = "Festivals"
	CategoryFilm          Category = "Film"
	CategoryMiscellaneous Category = "Miscellaneous"
)

var Categories = []Category{
	CategoryMusic,
	CategorySports,
	CategoryArtsTheater,
	CategoryFamily,
	CategoryComedy,
	CategoryFestivals,
	CategoryFilm,
	CategoryMiscellaneous,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
