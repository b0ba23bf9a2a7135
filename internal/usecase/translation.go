package usecase

import (
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

// translationEntry links the Spanish and English forms of one grocery term
type translationEntry struct {
	es, esPlural, en, enPlural string
}

// translationTable is the curated es <-> en dictionary, singular and plural forms
var translationTable = []translationEntry{
	// Produce
	{"tomate", "tomates", "tomato", "tomatoes"},
	{"cebolla", "cebollas", "onion", "onions"},
	{"ajo", "ajos", "garlic", "garlic"},
	{"patata", "patatas", "potato", "potatoes"},
	{"zanahoria", "zanahorias", "carrot", "carrots"},
	{"pimiento", "pimientos", "bell pepper", "bell peppers"},
	{"pimiento rojo", "pimientos rojos", "red pepper", "red peppers"},
	{"lechuga", "lechugas", "lettuce", "lettuces"},
	{"espinaca", "espinacas", "spinach", "spinach"},
	{"pepino", "pepinos", "cucumber", "cucumbers"},
	{"calabacin", "calabacines", "zucchini", "zucchinis"},
	{"berenjena", "berenjenas", "eggplant", "eggplants"},
	{"champinon", "champinones", "mushroom", "mushrooms"},
	{"brocoli", "brocolis", "broccoli", "broccoli"},
	{"aguacate", "aguacates", "avocado", "avocados"},
	{"limon", "limones", "lemon", "lemons"},
	{"lima", "limas", "lime", "limes"},
	{"manzana", "manzanas", "apple", "apples"},
	{"platano", "platanos", "banana", "bananas"},
	{"naranja", "naranjas", "orange", "oranges"},
	{"fresa", "fresas", "strawberry", "strawberries"},
	{"perejil", "perejil", "parsley", "parsley"},
	{"cilantro", "cilantro", "coriander", "coriander"},
	{"albahaca", "albahaca", "basil", "basil"},
	// Meat and seafood
	{"pollo", "pollos", "chicken", "chickens"},
	{"pechuga de pollo", "pechugas de pollo", "chicken breast", "chicken breasts"},
	{"ternera", "terneras", "beef", "beef"},
	{"carne picada", "carne picada", "ground beef", "ground beef"},
	{"cerdo", "cerdos", "pork", "pork"},
	{"cordero", "corderos", "lamb", "lamb"},
	{"pavo", "pavos", "turkey", "turkeys"},
	{"jamon", "jamones", "ham", "hams"},
	{"tocino", "tocinos", "bacon", "bacon"},
	{"salchicha", "salchichas", "sausage", "sausages"},
	{"salmon", "salmones", "salmon", "salmon"},
	{"atun", "atunes", "tuna", "tuna"},
	{"bacalao", "bacalaos", "cod", "cod"},
	{"gamba", "gambas", "prawn", "prawns"},
	{"camaron", "camarones", "shrimp", "shrimp"},
	// Dairy and eggs
	{"leche", "leches", "milk", "milk"},
	{"queso", "quesos", "cheese", "cheeses"},
	{"mantequilla", "mantequillas", "butter", "butter"},
	{"nata", "natas", "cream", "cream"},
	{"yogur", "yogures", "yogurt", "yogurts"},
	{"huevo", "huevos", "egg", "eggs"},
	// Dry goods and bakery
	{"arroz", "arroces", "rice", "rice"},
	{"pasta", "pastas", "pasta", "pasta"},
	{"espagueti", "espaguetis", "spaghetti", "spaghetti"},
	{"harina", "harinas", "flour", "flour"},
	{"azucar", "azucares", "sugar", "sugar"},
	{"pan", "panes", "bread", "breads"},
	{"garbanzo", "garbanzos", "chickpea", "chickpeas"},
	{"lenteja", "lentejas", "lentil", "lentils"},
	{"alubia", "alubias", "bean", "beans"},
	{"avena", "avenas", "oat", "oats"},
	// Condiments, spices and beverages
	{"aceite de oliva", "aceites de oliva", "olive oil", "olive oils"},
	{"aceite", "aceites", "oil", "oils"},
	{"vinagre", "vinagres", "vinegar", "vinegars"},
	{"sal", "sales", "salt", "salts"},
	{"pimienta", "pimientas", "black pepper", "black pepper"},
	{"comino", "cominos", "cumin", "cumin"},
	{"oregano", "oreganos", "oregano", "oregano"},
	{"canela", "canelas", "cinnamon", "cinnamon"},
	{"pimenton", "pimentones", "paprika", "paprika"},
	{"mostaza", "mostazas", "mustard", "mustards"},
	{"mayonesa", "mayonesas", "mayonnaise", "mayonnaise"},
	{"miel", "mieles", "honey", "honey"},
	{"agua", "aguas", "water", "water"},
	{"zumo", "zumos", "juice", "juices"},
	{"vino", "vinos", "wine", "wines"},
	{"cafe", "cafes", "coffee", "coffee"},
}

// categoryRules infer a category from an ingredient name.
// Order matters: the first keyword contained in the space-padded name wins.
var categoryRules = []struct {
	keyword  string
	category domain.Category
}{
	{"congelad", domain.CategoryFrozen},
	{"frozen", domain.CategoryFrozen},
	{"en conserva", domain.CategoryCanned},
	{"canned", domain.CategoryCanned},
	{"salmon", domain.CategorySeafood},
	{"atun", domain.CategorySeafood},
	{"tuna", domain.CategorySeafood},
	{"bacalao", domain.CategorySeafood},
	{"gamba", domain.CategorySeafood},
	{"prawn", domain.CategorySeafood},
	{"shrimp", domain.CategorySeafood},
	{"camaron", domain.CategorySeafood},
	{"pescado", domain.CategorySeafood},
	{"fish", domain.CategorySeafood},
	{"pollo", domain.CategoryMeat},
	{"chicken", domain.CategoryMeat},
	{"ternera", domain.CategoryMeat},
	{"beef", domain.CategoryMeat},
	{"cerdo", domain.CategoryMeat},
	{"pork", domain.CategoryMeat},
	{"cordero", domain.CategoryMeat},
	{"lamb", domain.CategoryMeat},
	{"pavo", domain.CategoryMeat},
	{"turkey", domain.CategoryMeat},
	{"jamon", domain.CategoryMeat},
	{"bacon", domain.CategoryMeat},
	{"tocino", domain.CategoryMeat},
	{"salchicha", domain.CategoryMeat},
	{"sausage", domain.CategoryMeat},
	{"carne", domain.CategoryMeat},
	{"leche", domain.CategoryDairy},
	{"milk", domain.CategoryDairy},
	{"queso", domain.CategoryDairy},
	{"cheese", domain.CategoryDairy},
	{"mantequilla", domain.CategoryDairy},
	{"butter", domain.CategoryDairy},
	{"yogur", domain.CategoryDairy},
	{" nata ", domain.CategoryDairy},
	{"cream", domain.CategoryDairy},
	{"huevo", domain.CategoryDairy},
	{"eggplant", domain.CategoryProduce},
	{" egg", domain.CategoryDairy},
	{" pan ", domain.CategoryBakery},
	{" panes ", domain.CategoryBakery},
	{"bread", domain.CategoryBakery},
	{"baguette", domain.CategoryBakery},
	{"zumo", domain.CategoryBeverages},
	{"juice", domain.CategoryBeverages},
	{" agua ", domain.CategoryBeverages},
	{" aguas ", domain.CategoryBeverages},
	{"water", domain.CategoryBeverages},
	{" vino", domain.CategoryBeverages},
	{"wine", domain.CategoryBeverages},
	{"cafe", domain.CategoryBeverages},
	{"coffee", domain.CategoryBeverages},
	{"aceite", domain.CategoryCondiments},
	{"oil", domain.CategoryCondiments},
	{"vinagre", domain.CategoryCondiments},
	{"vinegar", domain.CategoryCondiments},
	{"salsa", domain.CategoryCondiments},
	{"sauce", domain.CategoryCondiments},
	{"mostaza", domain.CategoryCondiments},
	{"mustard", domain.CategoryCondiments},
	{"mayonesa", domain.CategoryCondiments},
	{"mayonnaise", domain.CategoryCondiments},
	{"miel", domain.CategoryCondiments},
	{"honey", domain.CategoryCondiments},
	{"pimienta", domain.CategorySpices},
	{"black pepper", domain.CategorySpices},
	{"comino", domain.CategorySpices},
	{"cumin", domain.CategorySpices},
	{"oregano", domain.CategorySpices},
	{"canela", domain.CategorySpices},
	{"cinnamon", domain.CategorySpices},
	{"pimenton", domain.CategorySpices},
	{"paprika", domain.CategorySpices},
	{" salt", domain.CategorySpices},
	{" sal ", domain.CategorySpices},
	{"arroz", domain.CategoryDryGoods},
	{"rice", domain.CategoryDryGoods},
	{"pasta", domain.CategoryDryGoods},
	{"espagueti", domain.CategoryDryGoods},
	{"spaghetti", domain.CategoryDryGoods},
	{"harina", domain.CategoryDryGoods},
	{"flour", domain.CategoryDryGoods},
	{"azucar", domain.CategoryDryGoods},
	{"sugar", domain.CategoryDryGoods},
	{"garbanzo", domain.CategoryDryGoods},
	{"chickpea", domain.CategoryDryGoods},
	{"lenteja", domain.CategoryDryGoods},
	{"lentil", domain.CategoryDryGoods},
	{"alubia", domain.CategoryDryGoods},
	{"bean", domain.CategoryDryGoods},
	{"avena", domain.CategoryDryGoods},
	{" oat", domain.CategoryDryGoods},
	{"tomat", domain.CategoryProduce},
	{"cebolla", domain.CategoryProduce},
	{"onion", domain.CategoryProduce},
	{" ajo", domain.CategoryProduce},
	{"garlic", domain.CategoryProduce},
	{"patata", domain.CategoryProduce},
	{"potato", domain.CategoryProduce},
	{"zanahoria", domain.CategoryProduce},
	{"carrot", domain.CategoryProduce},
	{"pimiento", domain.CategoryProduce},
	{"pepper", domain.CategoryProduce},
	{"lechuga", domain.CategoryProduce},
	{"lettuce", domain.CategoryProduce},
	{"espinaca", domain.CategoryProduce},
	{"spinach", domain.CategoryProduce},
	{"pepino", domain.CategoryProduce},
	{"cucumber", domain.CategoryProduce},
	{"calabacin", domain.CategoryProduce},
	{"zucchini", domain.CategoryProduce},
	{"berenjena", domain.CategoryProduce},
	{"champinon", domain.CategoryProduce},
	{"mushroom", domain.CategoryProduce},
	{"brocoli", domain.CategoryProduce},
	{"broccoli", domain.CategoryProduce},
	{"aguacate", domain.CategoryProduce},
	{"avocado", domain.CategoryProduce},
	{"limon", domain.CategoryProduce},
	{"lemon", domain.CategoryProduce},
	{" lima", domain.CategoryProduce},
	{"lime", domain.CategoryProduce},
	{"manzana", domain.CategoryProduce},
	{"apple", domain.CategoryProduce},
	{"platano", domain.CategoryProduce},
	{"banana", domain.CategoryProduce},
	{"naranja", domain.CategoryProduce},
	{"orange", domain.CategoryProduce},
	{"fresa", domain.CategoryProduce},
	{"strawberr", domain.CategoryProduce},
	{"perejil", domain.CategoryProduce},
	{"parsley", domain.CategoryProduce},
	{"cilantro", domain.CategoryProduce},
	{"albahaca", domain.CategoryProduce},
	{"basil", domain.CategoryProduce},
}

// categoryNames are the shelf names retailers use for each category, most common first
var categoryNames = map[domain.Category][]string{
	domain.CategoryProduce:    {"Fruta y verdura", "Verduras"},
	domain.CategoryDairy:      {"Lácteos", "Huevos, leche y mantequilla"},
	domain.CategoryMeat:       {"Carne", "Charcutería"},
	domain.CategorySeafood:    {"Pescado y marisco", "Marisco"},
	domain.CategoryBakery:     {"Panadería", "Pan de molde"},
	domain.CategoryFrozen:     {"Congelados", "Verdura congelada"},
	domain.CategoryCanned:     {"Conservas", "Conservas vegetales"},
	domain.CategoryDryGoods:   {"Arroz, legumbres y pasta", "Despensa"},
	domain.CategoryCondiments: {"Aceite, vinagre y sal", "Salsas"},
	domain.CategorySpices:     {"Especias", "Sal y especias"},
	domain.CategoryBeverages:  {"Bebidas", "Zumos"},
}

type termForm struct {
	entry  int
	plural bool
	es     bool
}

// TranslationIndex is a static bidirectional dictionary of grocery terms.
// It is read-only after construction and safe for concurrent use.
type TranslationIndex struct {
	entries []translationEntry
	forms   map[string][]termForm
}

// NewTranslationIndex builds the index over the curated table
func NewTranslationIndex() *TranslationIndex {
	idx := &TranslationIndex{
		entries: translationTable,
		forms:   make(map[string][]termForm),
	}
	for i, e := range translationTable {
		idx.add(e.es, termForm{entry: i, es: true})
		idx.add(e.esPlural, termForm{entry: i, es: true, plural: true})
		idx.add(e.en, termForm{entry: i})
		idx.add(e.enPlural, termForm{entry: i, plural: true})
	}
	return idx
}

func (x *TranslationIndex) add(word string, f termForm) {
	for _, existing := range x.forms[word] {
		if existing.entry == f.entry && existing.es == f.es {
			return
		}
	}
	x.forms[word] = append(x.forms[word], f)
}

// Translations returns the other-language forms of term, same grammatical number first.
// Unknown terms return an empty list.
func (x *TranslationIndex) Translations(term string) []string {
	key := strings.TrimSpace(foldText(term))
	var out []string
	for _, f := range x.forms[key] {
		e := x.entries[f.entry]
		sing, plur := e.en, e.enPlural
		if !f.es {
			sing, plur = e.es, e.esPlural
		}
		if f.plural {
			out = append(out, plur, sing)
		} else {
			out = append(out, sing, plur)
		}
	}
	return dedupTerms(out, key)
}

// Variants returns the singular/plural counterparts of term in its own language
func (x *TranslationIndex) Variants(term string) []string {
	key := strings.TrimSpace(foldText(term))
	if key == "" {
		return []string{}
	}

	if forms, ok := x.forms[key]; ok {
		var out []string
		for _, f := range forms {
			e := x.entries[f.entry]
			switch {
			case f.es && f.plural:
				out = append(out, e.es)
			case f.es:
				out = append(out, e.esPlural)
			case f.plural:
				out = append(out, e.en)
			default:
				out = append(out, e.enPlural)
			}
		}
		return dedupTerms(out, key)
	}

	// unknown words: toggle a plural "s" on the last word
	words := strings.Fields(key)
	last := words[len(words)-1]
	if strings.HasSuffix(last, "s") {
		if len(last) <= 3 {
			return []string{}
		}
		last = strings.TrimSuffix(last, "s")
	} else {
		last += "s"
	}
	words[len(words)-1] = last
	return dedupTerms([]string{strings.Join(words, " ")}, key)
}

// AllSearchTerms returns term, its translations and its variants, most specific first
func (x *TranslationIndex) AllSearchTerms(term string) []string {
	key := strings.TrimSpace(foldText(term))
	if key == "" {
		return []string{}
	}
	terms := []string{key}
	terms = append(terms, x.Translations(key)...)
	terms = append(terms, x.Variants(key)...)
	return dedupTerms(terms, "")
}

// InferCategory maps an ingredient onto a category by keyword; first match wins
func (x *TranslationIndex) InferCategory(term string) (domain.Category, bool) {
	folded := strings.TrimSpace(foldText(term))
	if folded == "" {
		return domain.CategoryOther, false
	}
	padded := " " + folded + " "
	for _, rule := range categoryRules {
		if strings.Contains(padded, rule.keyword) {
			return rule.category, true
		}
	}
	return domain.CategoryOther, false
}

// CategorySearchNames returns the localized shelf names for a category
func (x *TranslationIndex) CategorySearchNames(category domain.Category) []string {
	return append([]string(nil), categoryNames[category]...)
}

// dedupTerms drops empty strings, duplicates and skip while keeping order
func dedupTerms(terms []string, skip string) []string {
	seen := map[string]bool{skip: true, "": true}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
