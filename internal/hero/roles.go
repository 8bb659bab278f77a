package hero

// Role is a hero's class.
type Role string

const (
	Tank    Role = "Tank"
	Damage  Role = "Damage"
	Support Role = "Support"
	Unknown Role = ""
)

var roleOf = map[Hero]Role{
	"Ana": Support, "Mercy": Support, "Moira": Support, "Kiriko": Support,
	"Lucio": Support, "Zenyatta": Support, "Baptiste": Support, "Lifeweaver": Support,
	"Brigitte": Support, "Illari": Support, "Juno": Support,

	"Genji": Damage, "Cassidy": Damage, "Soldier_76": Damage, "Hanzo": Damage,
	"Widowmaker": Damage, "Tracer": Damage, "Ashe": Damage, "Junkrat": Damage,
	"Sombra": Damage, "Reaper": Damage, "Pharah": Damage, "Sojourn": Damage,
	"Mei": Damage, "Bastion": Damage, "Torbjorn": Damage, "Echo": Damage,
	"Symmetra": Damage, "Venture": Damage,

	"Reinhardt": Tank, "DVa": Tank, "Zarya": Tank, "Roadhog": Tank,
	"Doomfist": Tank, "Orisa": Tank, "Sigma": Tank, "Winston": Tank,
	"Junker_Queen": Tank, "Wrecking_Ball": Tank, "Ramattra": Tank, "Mauga": Tank,
	"Hazard": Tank,
}

// Role returns the hero's role, or Unknown for Hidden and unlisted names.
func (h Hero) Role() Role {
	return roleOf[h]
}
