package codec

import (
	"sync"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// writeCmdKind enumerates the write-buffer worker's command protocol.
type writeCmdKind int

const (
	wcSync writeCmdKind = iota + 1
	wcDropBlockQueue
	wcDropAll
	wcPause
	wcUnpause
	wcDrain
	wcTerm
)

type writeCmd struct {
	kind  writeCmdKind
	reply chan struct{}
}

type writeBlock struct {
	data   []dspcore.Sample
	frames int
}

// ErrShortWrite is the sticky error latched by the write buffer after a
// short write, delivered to the caller-supplied ErrorCB exactly
// once.
type ErrShortWrite struct {
	Wrote, Wanted int
}

func (e *ErrShortWrite) Error() string {
	return "codec write buffer: short write"
}

// WriteBuf wraps a sink codec with a consumer worker goroutine that
// drains a bounded block queue, so the processing thread never blocks
// on the codec's own write latency.
type WriteBuf struct {
	mu          sync.Mutex
	wake        chan struct{}
	codec       *Codec
	blocks      []writeBlock
	front       int
	count       int
	cap         int
	fillFrames  int
	cmds        chan writeCmd
	suspended   bool
	stopped     bool
	errored     bool
	done        chan struct{}
	ErrorCB     func(error)
}

func NewWriteBuf(c *Codec, nBlocks int) *WriteBuf {
	wb := &WriteBuf{
		codec:   c,
		blocks:  make([]writeBlock, nBlocks),
		cap:     nBlocks,
		cmds:    make(chan writeCmd, 8),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: true,
	}
	go wb.worker()
	return wb
}

// WrapWrite returns a WriteBuf-backed Codec, or the bare codec
// unmodified when buffering should be skipped (NoOutBuf hint, NoBuf
// hint, or nBlocks < 2).
func WrapWrite(c *Codec, nBlocks int) *Codec {
	if c == nil || c.HasHint(NoOutBuf) || c.HasHint(NoBuf) || nBlocks < 2 {
		return c
	}
	wb := NewWriteBuf(c, nBlocks)
	return &Codec{
		Path: c.Path, Type: c.Type, Enc: c.Enc,
		FS: c.FS, Channels: c.Channels, Prec: c.Prec,
		Hints: c.Hints,
		Write: wb.Write,
		Delay: func() int64 { return c.Delay() + int64(wb.PendingFrames()) },
		Drop:  wb.DropAll,
		Pause: func(p bool) {
			if p {
				wb.Pause()
			} else {
				wb.Unpause()
			}
		},
		Data:    wb,
		Destroy: func() { wb.Terminate() },
	}
}

func (wb *WriteBuf) worker() {
	for {
		select {
		case cmd := <-wb.cmds:
			if wb.handle(cmd) {
				close(wb.done)
				return
			}
			continue
		default:
		}

		wb.mu.Lock()
		canConsume := !wb.suspended && wb.count > 0
		wb.mu.Unlock()
		if !canConsume {
			select {
			case cmd := <-wb.cmds:
				if wb.handle(cmd) {
					close(wb.done)
					return
				}
			case <-wb.wake:
			}
			continue
		}

		wb.mu.Lock()
		blk := wb.blocks[wb.front]
		wb.mu.Unlock()

		n, err := wb.codec.Write(blk.data, blk.frames)
		if err != nil || n < blk.frames {
			wb.mu.Lock()
			wb.errored = true
			wb.dropBlockQueueLocked()
			wb.mu.Unlock()
			if wb.ErrorCB != nil {
				wb.ErrorCB(&ErrShortWrite{Wrote: n, Wanted: blk.frames})
			}
			continue
		}

		wb.mu.Lock()
		wb.front = (wb.front + 1) % wb.cap
		wb.count--
		wb.fillFrames -= blk.frames
		if wb.count == 0 {
			wb.stopped = true
		}
		wb.notifyWake()
		wb.mu.Unlock()
	}
}

func (wb *WriteBuf) notifyWake() {
	select {
	case wb.wake <- struct{}{}:
	default:
	}
}

func (wb *WriteBuf) dropBlockQueueLocked() {
	wb.front = 0
	wb.count = 0
	wb.fillFrames = 0
	wb.stopped = true
}

func (wb *WriteBuf) handle(cmd writeCmd) (term bool) {
	switch cmd.kind {
	case wcSync:
		cmd.reply <- struct{}{}
	case wcDropBlockQueue:
		wb.mu.Lock()
		wb.dropBlockQueueLocked()
		wb.mu.Unlock()
	case wcDropAll:
		wb.mu.Lock()
		wb.dropBlockQueueLocked()
		wb.mu.Unlock()
		if wb.codec.Drop != nil {
			wb.codec.Drop()
		}
	case wcPause:
		wb.mu.Lock()
		wb.suspended = true
		wb.mu.Unlock()
		if wb.codec.Pause != nil {
			wb.codec.Pause(true)
		}
	case wcUnpause:
		wb.mu.Lock()
		wb.suspended = false
		wb.mu.Unlock()
		if wb.codec.Pause != nil {
			wb.codec.Pause(false)
		}
		wb.notifyWake()
	case wcDrain:
		wb.mu.Lock()
		suspended := wb.suspended
		wb.mu.Unlock()
		if suspended {
			wb.mu.Lock()
			wb.dropBlockQueueLocked()
			wb.mu.Unlock()
		} else {
			for {
				wb.mu.Lock()
				done := wb.count == 0 && wb.stopped
				wb.mu.Unlock()
				if done {
					break
				}
				<-wb.wake
			}
		}
		cmd.reply <- struct{}{}
	case wcTerm:
		return true
	}
	return false
}

func (wb *WriteBuf) sendCmd(c writeCmd) {
	wb.cmds <- c
	wb.notifyWake()
}

func (wb *WriteBuf) Sync() {
	reply := make(chan struct{})
	wb.sendCmd(writeCmd{kind: wcSync, reply: reply})
	<-reply
}

func (wb *WriteBuf) Pause()            { wb.sendCmd(writeCmd{kind: wcPause}) }
func (wb *WriteBuf) Unpause()          { wb.sendCmd(writeCmd{kind: wcUnpause}) }
func (wb *WriteBuf) DropBlockQueue()   { wb.sendCmd(writeCmd{kind: wcDropBlockQueue}) }
func (wb *WriteBuf) DropAll()          { wb.sendCmd(writeCmd{kind: wcDropAll}) }

// Drain blocks until the block queue is empty and stopped (or, if
// suspended, drops immediately), matching §4.5.
func (wb *WriteBuf) Drain() {
	reply := make(chan struct{})
	wb.sendCmd(writeCmd{kind: wcDrain, reply: reply})
	<-reply
}

func (wb *WriteBuf) Terminate() {
	wb.cmds <- writeCmd{kind: wcTerm}
	wb.notifyWake()
	<-wb.done
}

// Write copies frames frames of buf into the next free block. After a
// latched error, pushes are silently discarded, matching the specified
// write-buffer error behavior.
func (wb *WriteBuf) Write(buf []dspcore.Sample, frames int) (int, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if wb.errored {
		return frames, nil
	}
	for wb.count >= wb.cap {
		wb.mu.Unlock()
		<-wb.wake
		wb.mu.Lock()
		if wb.errored {
			return frames, nil
		}
	}
	channels := wb.codec.Channels
	data := make([]dspcore.Sample, frames*channels)
	copy(data, buf[:frames*channels])
	slot := (wb.front + wb.count) % wb.cap
	wb.blocks[slot] = writeBlock{data: data, frames: frames}
	wb.count++
	wb.fillFrames += frames
	wb.stopped = false
	wb.notifyWake()
	return frames, nil
}

// PendingFrames returns the total frames currently queued but not yet
// written.
func (wb *WriteBuf) PendingFrames() int {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.fillFrames
}

// Errored reports whether the sticky short-write error has latched.
func (wb *WriteBuf) Errored() bool {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.errored
}
