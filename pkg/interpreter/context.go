package interpreter

import "fmt"

// Context identifies the local-variable namespace of an interpreter.
// Owner is the game object the interpreter runs for, if any.
type Context struct {
	ID    string
	Owner any
}

// Set switches the context to another namespace.
func (c *Context) Set(id string, owner any) {
	c.ID = id
	c.Owner = owner
}

// SceneContextID returns the context id used for a scene interpreter.
func SceneContextID(name string) string {
	return "scene:" + name
}

// CommonEventContextID returns the context id used for a common event interpreter.
func CommonEventContextID(id int) string {
	return fmt.Sprintf("commonEvent:%d", id)
}
