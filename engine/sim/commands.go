package sim

import "github.com/zwm-666/wargrid/engine/core"

// CommandType identifies a player order.
type CommandType uint8

const (
	CmdMove CommandType = iota
	CmdAttack
	CmdStop
	CmdTrain
	CmdCancelTrain
	CmdSetRally
	CmdPlaceBuilding
	CmdResearch
)

var commandNames = [...]string{
	"move", "attack", "stop", "train", "cancel_train",
	"set_rally", "place_building", "research",
}

func (t CommandType) String() string {
	if int(t) < len(commandNames) {
		return commandNames[t]
	}
	return "unknown"
}

// Command is one player order. Which fields matter depends on the type;
// the rest stay at their zero value. Commands apply immediately when
// received, there is no tick scheduling or wire format here.
type Command struct {
	PlayerID int
	Type     CommandType
	Entity   core.EntityID // acting unit or building
	Target   core.EntityID // attack target
	X, Y     float64       // world position for move, rally and placement
	Param    string        // unit, building, or tech type id
	Index    int           // queue index for cancel_train
}

// Apply validates ownership and routes one command into the systems.
// Orders for entities the player does not own are dropped, as are orders
// no system accepts. Returns whether the command took effect.
func (m *Match) Apply(cmd Command) bool {
	switch cmd.Type {
	case CmdMove:
		return m.owns(cmd.PlayerID, cmd.Entity) &&
			m.Units.OrderMove(m.World, cmd.Entity, cmd.X, cmd.Y)
	case CmdAttack:
		return m.owns(cmd.PlayerID, cmd.Entity) &&
			m.Units.OrderAttack(m.World, cmd.Entity, cmd.Target)
	case CmdStop:
		if !m.owns(cmd.PlayerID, cmd.Entity) {
			return false
		}
		m.Units.OrderStop(m.World, cmd.Entity)
		return true
	case CmdTrain:
		return m.owns(cmd.PlayerID, cmd.Entity) &&
			m.Builds.Enqueue(m.World, cmd.Entity, cmd.Param)
	case CmdCancelTrain:
		return m.owns(cmd.PlayerID, cmd.Entity) &&
			m.Builds.Cancel(m.World, cmd.Entity, cmd.Index)
	case CmdSetRally:
		cx, cy := m.Grid.WorldToCell(cmd.X, cmd.Y)
		return m.owns(cmd.PlayerID, cmd.Entity) &&
			m.Builds.SetRally(m.World, cmd.Entity, cx, cy)
	case CmdPlaceBuilding:
		cx, cy := m.Grid.WorldToCell(cmd.X, cmd.Y)
		_, ok := m.Builds.Buy(m.World, cmd.Param, cx, cy, cmd.PlayerID)
		return ok
	case CmdResearch:
		return m.Tech.Unlock(m.World, cmd.PlayerID, cmd.Param)
	}
	return false
}

func (m *Match) owns(player int, id core.EntityID) bool {
	own, ok := m.World.Get(id, core.CompOwner).(*core.Owner)
	return ok && own.PlayerID == player
}
