package extract

import "strings"

// categoryRule maps vendor keywords to a spending category. Rules are
// checked in declaration order and the first hit wins, so more specific
// keyword sets must come before the generic ones they overlap with
// ("oxxo gas" is fuel, plain "oxxo" is food).
type categoryRule struct {
	keywords        []string
	category        string
	transactionType string
}

var categoryRules = []categoryRule{
	{
		keywords:        []string{"oxxo gas", "pemex", "gasolinera", "g500", "bp ", "shell"},
		category:        "Transport",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"uber", "didi", "cabify", "taxi", "autobuses", "volaris", "aeromexico", "viva aerobus", "estacionamiento"},
		category:        "Transport",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"farmacia", "farmacias guadalajara", "similares", "benavides", "del ahorro", "san pablo", "hospital", "laboratorio"},
		category:        "Health",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"oxxo", "seven", "7-eleven", "walmart", "soriana", "chedraui", "bodega aurrera", "superama", "la comer", "costco", "sams", "abarrotes"},
		category:        "Food",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"restaurante", "taqueria", "cocina", "starbucks", "vips", "toks", "sanborns", "mcdonald", "burger", "domino", "kfc", "sushi", "cafe"},
		category:        "Restaurants",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"cinepolis", "cinemex", "netflix", "spotify", "xbox", "playstation"},
		category:        "Entertainment",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"cfe", "telmex", "telcel", "izzi", "totalplay", "at&t", "movistar", "agua y drenaje"},
		category:        "Utilities",
		transactionType: TypeExpense,
	},
	{
		keywords:        []string{"liverpool", "palacio de hierro", "coppel", "elektra", "sears", "amazon", "mercado libre", "home depot", "office depot", "zara", "bershka"},
		category:        "Shopping",
		transactionType: TypeExpense,
	},
}

// classifyVendor maps a vendor name to a spending category by substring
// lookup over the rule table. Returns false when no rule matches.
func classifyVendor(vendor string) (string, bool) {
	v := strings.ToLower(vendor)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(v, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}
