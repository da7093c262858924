package game

// ComputedAttribute is a card's effective attributes after continuous
// effects. It is rebuilt from the archetype on every recompute.
type ComputedAttribute struct {
	Color         Color                         `json:"color"`
	Cost          Linear[uint8]                 `json:"cost"`
	CardType      CardType                      `json:"card_type"`
	CreatureType  string                        `json:"creature_type,omitempty"`
	Abilities     AbilityList[KeywordAbility]   `json:"abilities"`
	AnonAbilities AbilityList[AnonymousAbility] `json:"anon_abilities"`
	Power         *Linear[uint32]               `json:"power,omitempty"`
	Shields       *Linear[uint8]                `json:"shields,omitempty"`
}

func newComputed(a *Archetype) ComputedAttribute {
	c := ComputedAttribute{
		Color:         a.Color,
		Cost:          NewLinear(a.Cost),
		CardType:      a.CardType,
		CreatureType:  a.CreatureType,
		Abilities:     NewAbilityList(a.Abilities...),
		AnonAbilities: NewAbilityList(a.AnonAbilities...),
	}
	if a.Power != nil {
		p := NewLinear(*a.Power)
		c.Power = &p
	}
	if a.Shields != nil {
		s := NewLinear(*a.Shields)
		c.Shields = &s
	}
	return c
}

func (c *ComputedAttribute) IsCreature() bool { return c.CardType == CardTypeCreature }

func (c *ComputedAttribute) IsHex() bool { return c.CardType == CardTypeHex }

// CurrentPower is zero for cards without power.
func (c *ComputedAttribute) CurrentPower() uint32 {
	if c.Power == nil {
		return 0
	}
	return c.Power.Value()
}

func (c *ComputedAttribute) CurrentShields() uint8 {
	if c.Shields == nil {
		return 0
	}
	return c.Shields.Value()
}

func (c *ComputedAttribute) Has(k KeywordAbility) bool { return c.Abilities.Contains(k) }

// Apply folds m into c. Power and shields are only modified when present.
func (c *ComputedAttribute) Apply(m ComputedAttributeModifier) {
	if m.Cost != nil {
		c.Cost.Modify(*m.Cost)
	}
	if m.Power != nil && c.Power != nil {
		c.Power.Modify(*m.Power)
	}
	if m.Shields != nil && c.Shields != nil {
		c.Shields.Modify(*m.Shields)
	}
	if m.Abilities != nil {
		c.Abilities.Modify(*m.Abilities)
	}
	if m.AnonAbilities != nil {
		c.AnonAbilities.Modify(*m.AnonAbilities)
	}
}

// ComputedAttributeModifier is the object a continuous effect returns.
type ComputedAttributeModifier struct {
	Cost          *Modifier                          `json:"cost,omitempty"`
	Power         *Modifier                          `json:"power,omitempty"`
	Shields       *Modifier                          `json:"shields,omitempty"`
	Abilities     *AbilityModifier[KeywordAbility]   `json:"abilities,omitempty"`
	AnonAbilities *AbilityModifier[AnonymousAbility] `json:"anon_abilities,omitempty"`
}

// PlayerAbilityModifier is the object a continuous effect returns when
// applied to a player.
type PlayerAbilityModifier struct {
	Abilities *AbilityModifier[PlayerAbility] `json:"abilities,omitempty"`
}
