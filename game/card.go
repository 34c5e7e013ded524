package game

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Card is a catalog template. It is never mutated after loading.
type Card struct {
	Id      int    `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
	Cost    int    `json:"cost"`
}

// CardInstance is a drawn copy of a catalog card living in a hand or on a field.
type CardInstance struct {
	Card
	InstanceId ulid.ULID `json:"instanceId"`
}

func NewCardInstance(card *Card, id ulid.ULID) *CardInstance {
	return &CardInstance{Card: *card, InstanceId: id}
}

// clone returns a detached copy so callers never hold the economy's own instance.
func (c *CardInstance) clone() *CardInstance {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// String renders the card in catalog text form, e.g. "Cool Dog {2} 1/4".
func (c Card) String() string {
	return fmt.Sprintf("%s {%d} %d/%d", c.Name, c.Cost, c.Attack, c.Defense)
}
