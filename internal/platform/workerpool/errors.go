// internal/platform/workerpool/errors.go
package workerpool

import "errors"

// ErrPoolStopped se retorna para tareas enviadas a un pool detenido.
var ErrPoolStopped = errors.New("worker pool stopped")
