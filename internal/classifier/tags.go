package classifier

// DefaultAreaTags maps each knowledge area to its canned tags. Matched
// keywords take the specific slots first; these fill the remainder.
var DefaultAreaTags = map[string][]string{
	"Língua Portuguesa":      {"gramática", "ortografia", "redação", "literatura", "linguística"},
	"Língua Inglesa":         {"inglês", "tradução", "gramática-inglesa", "vocabulário"},
	"História do Brasil":     {"brasil", "colônia", "império", "república", "política-brasileira"},
	"História Mundial":       {"internacional", "guerra", "revolução", "imperialismo", "ideologia"},
	"Política Internacional": {"diplomacia", "relações-internacionais", "onu", "mercosul", "geopolítica"},
	"Geografia":              {"território", "população", "economia-espacial", "meio-ambiente", "urbanização"},
	"ECONOMIA":               {"macroeconomia", "microeconomia", "política-fiscal", "comércio-internacional", "desenvolvimento"},
	"DIREITO":                {"constitucional", "administrativo", "internacional-público", "tratados", "soberania"},
	"LÍNGUA ESPANHOLA":       {"espanhol", "tradução-espanhol", "america-latina"},
	"LÍNGUA FRANCESA":        {"francês", "tradução-francês", "francofonia"},
}
