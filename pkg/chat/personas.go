package chat

import (
	"math/rand"

	"github.com/temancurhat/gocurhat/pkg/state"
)

// persona is a template a new contact is stamped from.
type persona struct {
	name   string
	traits state.AIPersonality
	prompt string
}

var malePersonas = []persona{
	{"Raka", state.AIPersonality{Hobby: "futsal", Food: "fried rice", Drink: "iced tea", Film: "action"}, "young man, warm smile, casual jacket"},
	{"Dimas", state.AIPersonality{Hobby: "photography", Food: "ramen", Drink: "black coffee", Film: "thriller"}, "young man with a camera, street style"},
	{"Bayu", state.AIPersonality{Hobby: "hiking", Food: "grilled chicken", Drink: "mineral water", Film: "documentary"}, "outdoorsy young man, backpack"},
	{"Fajar", state.AIPersonality{Hobby: "gaming", Food: "instant noodles", Drink: "soda", Film: "sci-fi"}, "young man with headphones, neon light"},
	{"Galih", state.AIPersonality{Hobby: "guitar", Food: "satay", Drink: "lemon tea", Film: "romance"}, "young man holding a guitar, golden hour"},
	{"Andra", state.AIPersonality{Hobby: "cycling", Food: "salad bowl", Drink: "smoothie", Film: "comedy"}, "athletic young man on a bike"},
	{"Reza", state.AIPersonality{Hobby: "cooking", Food: "rendang", Drink: "cappuccino", Film: "drama"}, "young man in a kitchen apron"},
	{"Yoga", state.AIPersonality{Hobby: "reading", Food: "dim sum", Drink: "green tea", Film: "mystery"}, "bookish young man, glasses, library"},
	{"Ilham", state.AIPersonality{Hobby: "sketching", Food: "meatball soup", Drink: "chocolate milk", Film: "animation"}, "young man sketching in a cafe"},
	{"Naufal", state.AIPersonality{Hobby: "surfing", Food: "seafood", Drink: "coconut water", Film: "adventure"}, "tanned young man at the beach"},
}

var femalePersonas = []persona{
	{"Salsa", state.AIPersonality{Hobby: "dancing", Food: "sushi", Drink: "boba tea", Film: "romance"}, "young woman, bright smile, pastel outfit"},
	{"Nadia", state.AIPersonality{Hobby: "painting", Food: "pasta", Drink: "matcha latte", Film: "drama"}, "young woman with paint-stained hands, studio"},
	{"Citra", state.AIPersonality{Hobby: "yoga", Food: "fruit salad", Drink: "infused water", Film: "documentary"}, "calm young woman, morning light"},
	{"Putri", state.AIPersonality{Hobby: "baking", Food: "croissant", Drink: "milk tea", Film: "comedy"}, "young woman with a tray of pastries"},
	{"Laras", state.AIPersonality{Hobby: "photography", Food: "pho", Drink: "americano", Film: "indie"}, "young woman with a film camera, city street"},
	{"Sinta", state.AIPersonality{Hobby: "gaming", Food: "pizza", Drink: "cola", Film: "fantasy"}, "young woman at a gaming desk, rgb light"},
	{"Maya", state.AIPersonality{Hobby: "gardening", Food: "gado-gado", Drink: "jasmine tea", Film: "slice of life"}, "young woman among plants, sun hat"},
	{"Ayu", state.AIPersonality{Hobby: "singing", Food: "fried chicken", Drink: "strawberry juice", Film: "musical"}, "young woman with a microphone, stage light"},
	{"Dewi", state.AIPersonality{Hobby: "journaling", Food: "pancakes", Drink: "chamomile tea", Film: "mystery"}, "young woman writing in a cafe corner"},
	{"Rani", state.AIPersonality{Hobby: "running", Food: "chicken porridge", Drink: "isotonic", Film: "action"}, "sporty young woman at a track, sunrise"},
}

// pickPersona draws a random persona of the given gender, avoiding names
// already in use when possible.
func pickPersona(gender state.AIGender, taken map[string]bool) persona {
	pool := femalePersonas
	if gender == state.GenderMale {
		pool = malePersonas
	}
	var free []persona
	for _, p := range pool {
		if !taken[p.name] {
			free = append(free, p)
		}
	}
	if len(free) == 0 {
		free = pool
	}
	return free[rand.Intn(len(free))]
}
