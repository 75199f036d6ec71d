package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f, restarting it after every panic until maxPanics is
// exhausted. A negative maxPanics restarts forever. Meant to supervise
// long-running loops, e.g. the bot update pump.
func GoRecoverable(maxPanics int, id string, f func()) {
	for {
		if runShielded(id, f) {
			return
		}
		if maxPanics == 0 {
			log.Fatalf("panics limit exceeded for job %q, exiting", id)
		}
		if maxPanics > 0 {
			maxPanics--
		}
		log.Debugf("recovering job %q, max panics left: %d", id, maxPanics)
	}
}

func runShielded(id string, f func()) (completed bool) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("job %q panics with message: %v, %s", id, err, identifyPanic())
		}
	}()
	f()
	return true
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(4, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}

	return fmt.Sprintf("pc:%x", pc)
}
