package interpreter

import (
	"errors"
	"fmt"
)

func handlePlayMusic(c *Call) error {
	if c.Env.Audio == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no audio player", nil)
	}
	name := c.Params.String("name", "")
	if err := c.Env.Audio.PlayMusic(name, c.Params.Int("volume", 100)); err != nil {
		return newCommandError(c, ErrorResourceFailed, fmt.Sprintf("play music %q", name), err)
	}
	return nil
}

func handleStopMusic(c *Call) error {
	if c.Env.Audio == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no audio player", nil)
	}
	c.Env.Audio.StopMusic()
	return nil
}

func handlePlaySound(c *Call) error {
	if c.Env.Audio == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no audio player", nil)
	}
	name := c.Params.String("name", "")
	if err := c.Env.Audio.PlaySound(name, c.Params.Int("volume", 100)); err != nil {
		return newCommandError(c, ErrorResourceFailed, fmt.Sprintf("play sound %q", name), err)
	}
	return nil
}

// handleShowPicture shows a picture and, when asked, waits for the length of
// its fade-in.
func handleShowPicture(c *Call) error {
	if c.Env.Stage == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no stage", nil)
	}
	name := c.Params.String("name", "")
	err := c.Env.Stage.ShowPicture(
		c.Params.Int("number", 0),
		name,
		c.Params.Int("x", 0),
		c.Params.Int("y", 0),
	)
	if err != nil {
		return newCommandError(c, ErrorResourceFailed, fmt.Sprintf("show picture %q", name), err)
	}
	if c.Params.Bool("waitForCompletion", false) {
		c.Interpreter.Wait(c.Params.Int("duration", 0))
	}
	return nil
}

func handleErasePicture(c *Call) error {
	if c.Env.Stage == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no stage", nil)
	}
	c.Env.Stage.ErasePicture(c.Params.Int("number", 0))
	return nil
}

// handleScript calls a host script function. A panicking script is reported
// like any other failure.
func handleScript(c *Call) (err error) {
	name := c.Params.String("name", "")
	fn, ok := c.Env.Scripts[name]
	if !ok {
		return newCommandError(c, ErrorInvalidParams, fmt.Sprintf("script %q not registered", name), nil)
	}
	defer func() {
		if r := recover(); r != nil {
			err = newCommandError(c, ErrorScriptFailed, fmt.Sprintf("script %q panicked", name), fmt.Errorf("%v", r))
		}
	}()
	if err := fn(c, c.Params.List("args")); err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return err
		}
		return newCommandError(c, ErrorScriptFailed, fmt.Sprintf("script %q", name), err)
	}
	return nil
}
