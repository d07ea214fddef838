package grocery

import (
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

// family is a group of foods that usually share a shop aisle. labels are
// the words a user's category name may contain to count as that aisle.
type family struct {
	labels   []string
	exact    []string
	keywords []string
}

// families is checked in order; within a family exact names beat keyword
// substrings, and more specific keywords are listed first.
var families = []family{
	{
		labels:   []string{"dairy", "fridge", "chilled"},
		exact:    []string{"milk", "butter", "cheese", "cream", "eggs", "yoghurt", "yogurt"},
		keywords: []string{"ice cream", "milk", "cheese", "cheddar", "mozzarella", "yoghurt", "yogurt", "butter", "cream", "egg"},
	},
	{
		labels:   []string{"frozen", "freezer"},
		exact:    []string{"peas", "ice"},
		keywords: []string{"frozen", "ice cream", "ice lolly", "fish fingers", "oven chips"},
	},
	{
		labels:   []string{"meat", "fish", "butcher"},
		exact:    []string{"chicken", "beef", "pork", "lamb", "mince", "bacon", "ham", "salmon", "tuna", "prawns"},
		keywords: []string{"chicken", "beef", "pork", "lamb", "mince", "sausage", "bacon", "steak", "salmon", "cod", "prawn", "turkey"},
	},
	{
		labels:   []string{"fruit", "veg", "produce", "greengrocer"},
		exact:    []string{"apples", "bananas", "lemons", "limes", "onions", "garlic", "potatoes", "carrots", "leeks", "tomatoes", "lettuce"},
		keywords: []string{"apple", "banana", "berr", "grape", "lemon", "lime", "orange", "pear", "onion", "potato", "carrot", "leek", "tomato", "pepper", "courgette", "spinach", "salad", "mushroom", "broccoli", "herb", "basil", "coriander", "parsley", "ginger"},
	},
	{
		labels:   []string{"bakery", "bread"},
		exact:    []string{"bread", "bagels", "crumpets", "tortillas", "wraps"},
		keywords: []string{"bread", "loaf", "roll", "bagel", "baguette", "croissant", "crumpet", "muffin", "pitta", "tortilla", "wrap"},
	},
	{
		labels:   []string{"cupboard", "pantry", "tins", "dry"},
		exact:    []string{"rice", "pasta", "flour", "sugar", "salt", "oil", "stock"},
		keywords: []string{"olive oil", "soy sauce", "tinned", "canned", "rice", "pasta", "spaghetti", "noodle", "flour", "sugar", "cereal", "oats", "stock", "sauce", "beans", "lentil", "spice", "vinegar", "honey", "jam"},
	},
	{
		labels:   []string{"drink", "beverage"},
		exact:    []string{"tea", "coffee", "juice", "water", "beer", "wine"},
		keywords: []string{"orange juice", "sparkling water", "coffee", "tea bags", "juice", "squash", "lemonade", "cola", "beer", "wine", "cider"},
	},
	{
		labels:   []string{"snack", "treat", "sweets"},
		exact:    []string{"crisps", "biscuits", "chocolate"},
		keywords: []string{"crisp", "biscuit", "chocolate", "cracker", "popcorn", "sweets", "cake"},
	},
	{
		labels:   []string{"household", "cleaning", "home"},
		exact:    []string{"foil", "batteries", "bin bags", "sponges"},
		keywords: []string{"washing up", "toilet roll", "kitchen roll", "bin bag", "detergent", "bleach", "cleaner", "sponge", "foil", "cling film", "batter", "bulb"},
	},
	{
		labels:   []string{"toiletries", "personal", "bathroom", "health"},
		exact:    []string{"shampoo", "toothpaste", "soap", "plasters"},
		keywords: []string{"shampoo", "conditioner", "toothpaste", "toothbrush", "deodorant", "shower gel", "soap", "razor", "tissue", "plaster", "paracetamol"},
	},
}

// lookupFamily finds the aisle an item name belongs to.
func lookupFamily(name string) *family {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	for i := range families {
		for _, e := range families[i].exact {
			if name == e {
				return &families[i]
			}
		}
	}
	for i := range families {
		for _, k := range families[i].keywords {
			if strings.Contains(name, k) {
				return &families[i]
			}
		}
	}
	return nil
}

// Suggest picks one of the user's categories for a new item by matching the
// item name against known aisles and the aisle against category names. It
// returns the category id, or false when nothing fits.
func Suggest(name string, categories []model.Category) (string, bool) {
	f := lookupFamily(name)
	if f == nil {
		return "", false
	}
	for _, c := range categories {
		cat := strings.ToLower(c.Name)
		for _, label := range f.labels {
			if strings.Contains(cat, label) {
				return c.ID, true
			}
		}
	}
	return "", false
}
