package game

// event is anything processed by the engine loop.
type event interface {
	isEvent()
}

// command is an event issued by a caller waiting for the outcome.
type command interface {
	event
	replyCh() <-chan error
}

type reply chan error

func newReply() reply {
	return make(reply, 1)
}

func (r reply) respond(err error) {
	r <- err
}

func (r reply) replyCh() <-chan error {
	return r
}

type startCommand struct {
	reply
	quizID       string
	queue        RoundQueue
	timerSeconds uint
	seq          uint64
}

type guessCommand struct {
	reply
	guess Guess
}

type advanceCommand struct {
	reply
}

type resetCommand struct {
	reply
	seq uint64
}

// assetLoadedEvent completes the load started for round attempt token.
type assetLoadedEvent struct {
	token  uint64
	handle Handle
	err    error
}

type timerTickEvent struct {
	token     uint64
	remaining uint
}

func (*startCommand) isEvent()    {}
func (*guessCommand) isEvent()    {}
func (*advanceCommand) isEvent()  {}
func (*resetCommand) isEvent()    {}
func (assetLoadedEvent) isEvent() {}
func (timerTickEvent) isEvent()   {}
