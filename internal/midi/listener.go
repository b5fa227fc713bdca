package midi

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// Listen opens the first available MIDI input port and streams raw event
// bytes on the returned channel until ctx is cancelled, at which point the
// channel is closed and the port released. A failure to find or open a
// port logs and returns a channel that closes immediately rather than an
// error, matching how an interactive demo wants to keep running even with
// no hardware attached.
func Listen(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)

		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("midi: failed to initialize driver: %v", err)
			return
		}
		defer func() {
			if err := drv.Close(); err != nil {
				log.Printf("midi: failed to close driver: %v", err)
			}
		}()

		ins, err := drv.Ins()
		if err != nil {
			log.Printf("midi: failed to list input ports: %v", err)
			return
		}
		if len(ins) == 0 {
			log.Println("midi: no input ports found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("midi: failed to open %s: %v", in.String(), err)
			return
		}
		log.Printf("midi: listening on %s", in.String())
		defer func() {
			if err := in.Close(); err != nil {
				log.Printf("midi: failed to close %s: %v", in.String(), err)
			}
		}()

		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			ch <- data
		}); err != nil {
			log.Printf("midi: failed to set listener: %v", err)
			return
		}
		defer func() {
			if err := in.StopListening(); err != nil {
				log.Printf("midi: failed to stop listening: %v", err)
			}
		}()

		<-ctx.Done()
	}()
	return ch
}
