package enums

type InteractionAction string

const (
	InteractionActionLike InteractionAction = "like"
	InteractionActionPass InteractionAction = "pass"
)

func (a InteractionAction) Valid() bool {
	return a == InteractionActionLike || a == InteractionActionPass
}
