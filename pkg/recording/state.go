// Package recording 会议室的麦克风录音会话：基于可替换采集器的显式
// idle/recording/paused/stopped 状态机，停止时将采集到的数据块合成为一个 WAV 文件。
package recording

import (
	"errors"
	"fmt"
)

// State 录音会话的生命周期状态
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Event 驱动状态转换的事件
type Event string

const (
	EventStart  Event = "start"
	EventPause  Event = "pause"
	EventResume Event = "resume"
	EventStop   Event = "stop"
)

// ErrInvalidTransition 当前状态不接受该事件
var ErrInvalidTransition = errors.New("invalid recording transition")

// Next 录音状态机的转换函数
//
//	idle      --start-->  recording
//	recording --pause-->  paused
//	paused    --resume--> recording
//	recording --stop-->   stopped
//	paused    --stop-->   stopped
func Next(s State, e Event) (State, error) {
	switch {
	case s == StateIdle && e == EventStart:
		return StateRecording, nil
	case s == StateRecording && e == EventPause:
		return StatePaused, nil
	case s == StatePaused && e == EventResume:
		return StateRecording, nil
	case (s == StateRecording || s == StatePaused) && e == EventStop:
		return StateStopped, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}

// Active 该状态下是否占用设备
func (s State) Active() bool {
	return s == StateRecording || s == StatePaused
}
