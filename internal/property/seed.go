package property

const unsplash = "https://images.unsplash.com/"

func unsplashImage(id string) string {
	return unsplash + id + "?auto=format&fit=crop&w=1600&q=80"
}

// Seed returns the sample listings shown on a fresh install, in display order.
func Seed() []Draft {
	villa := unsplashImage("photo-1613490493576-7fde63acd811")
	penthouse := unsplashImage("photo-1512917774080-9991f1c4c750")
	interior := unsplashImage("photo-1600596542815-ffad4c1539a9")
	kitchen := unsplashImage("photo-1600607687939-ce8a6c25118c")

	return []Draft{
		{
			Title:          "Modern Waterfront Villa",
			Price:          1250000,
			Description:    "Stunning waterfront villa with panoramic ocean views. This modern masterpiece features an open floor plan, high-end finishes, and direct beach access.",
			ThumbnailImage: villa,
			Images:         []string{villa, penthouse, interior, kitchen},
			Beds:           4,
			Baths:          3,
			Sqft:           3200,
			Location:       "Miami Beach, FL",
			Parking:        true,
			Beachfront:     true,
			Type:           "Home",
			MapLocation:    &MapLocation{Lat: 25.790654, Lng: -80.1300455, Address: "Miami Beach, Miami-Dade County, Florida, United States"},
			Features:       []string{"Ocean view", "Private beach access", "Open floor plan"},
		},
		{
			Title:          "Luxury Downtown Penthouse",
			Price:          2800000,
			Description:    "Spectacular penthouse in the heart of the city. Floor-to-ceiling windows offer breathtaking city views. Features include a gourmet kitchen, private elevator, and wraparound terrace.",
			ThumbnailImage: penthouse,
			Images:         []string{penthouse, interior, kitchen, villa},
			Beds:           3,
			Baths:          2.5,
			Sqft:           2800,
			Location:       "Manhattan, NY",
			Parking:        true,
			Beachfront:     false,
			Type:           "Home",
			MapLocation:    &MapLocation{Lat: 40.7896239, Lng: -73.9598939, Address: "Manhattan, New York County, New York, United States"},
			Features:       []string{"Gourmet kitchen", "Private elevator", "Wraparound terrace"},
		},
	}
}
