package navdata

import "github.com/paulmach/osm"

// BuildingType is the icon category of an amenity or shop.
type BuildingType int

const (
	BuildingShop BuildingType = iota
	BuildingBar
	BuildingCafe
	BuildingFastFood
	BuildingPub
	BuildingCollege
	BuildingLibrary
	BuildingUniversity
	BuildingATM
	BuildingBank
	BuildingRestaurant
	BuildingDoctors
	BuildingDentist
	BuildingHospital
	BuildingPharmacy
	BuildingCinema
	BuildingCasino
	BuildingTheatre
	BuildingFireStation
	BuildingCourthouse
	BuildingPolice
	BuildingPostOffice
	BuildingToilets
	BuildingPlaceOfWorship
	BuildingPetrolStation
	BuildingParking
	BuildingOther
	BuildingPostBox
	BuildingVeterinary
	BuildingEmbassy
	BuildingHairDresser
	BuildingButcher
	BuildingOptician
	BuildingFlorist
	BuildingNone
)

var buildingNames = [...]string{
	"shop", "bar", "cafe", "fast_food", "pub", "college", "library",
	"university", "atm", "bank", "restaurant", "doctors", "dentist",
	"hospital", "pharmacy", "cinema", "casino", "theatre", "fire_station",
	"courthouse", "police", "post_office", "toilets", "place_of_worship",
	"petrol_station", "parking", "other", "post_box", "veterinary",
	"embassy", "hairdresser", "butcher", "optician", "florist", "none",
}

func (b BuildingType) String() string {
	if b < 0 || int(b) >= len(buildingNames) {
		return "none"
	}
	return buildingNames[b]
}

// tag values that share an icon with another type
var buildingAliases = map[string]BuildingType{
	"supermarket": BuildingShop,
	"convenience": BuildingShop,
	"fuel":        BuildingPetrolStation,
	"pet":         BuildingVeterinary,
}

// BuildingTypeFromTags picks the icon type from the first amenity or shop
// tag. Unknown values map to BuildingOther, missing ones to BuildingNone.
func BuildingTypeFromTags(tags osm.Tags) BuildingType {
	value := ""
	for _, t := range tags {
		if t.Key == "amenity" || t.Key == "shop" {
			value = t.Value
			break
		}
	}
	if value == "" {
		return BuildingNone
	}
	if t, found := buildingAliases[value]; found {
		return t
	}
	for i, name := range buildingNames {
		if name == value && BuildingType(i) != BuildingNone && BuildingType(i) != BuildingOther {
			return BuildingType(i)
		}
	}
	return BuildingOther
}
