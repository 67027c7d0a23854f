package domain

import "sync/atomic"

type Identity struct {
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Sender is the outbound side of a transport connection. Send must not block.
type Sender interface {
	Send(msg []byte) bool
	Close() error
}

// Connection is one live client. Identity is fixed for its whole life.
type Connection struct {
	Id       string
	Identity Identity

	sender Sender
	seq    atomic.Uint64
}

func NewConnection(id string, identity Identity, sender Sender) *Connection {
	return &Connection{
		Id:       id,
		Identity: identity,
		sender:   sender,
	}
}

// Send enqueues msg and reports whether it was accepted.
func (c *Connection) Send(msg []byte) bool {
	if c.sender == nil {
		return false
	}

	return c.sender.Send(msg)
}

func (c *Connection) Close() error {
	if c.sender == nil {
		return nil
	}

	return c.sender.Close()
}

// NextSeq returns the next value of the connection's sync sequence, starting at 1.
func (c *Connection) NextSeq() uint64 {
	return c.seq.Add(1)
}
