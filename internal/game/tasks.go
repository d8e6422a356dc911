package game

import "fmt"

type Task struct {
	ID   string
	Type string
}

var taskTypes = []string{
	"wiring", "download", "fuel", "garbage",
	"scan", "asteroids", "shields", "reactor",
}

// GenerateTasks builds the fixed task list handed to each non-imposter.
// Task ids are stable per slot so completion reports can be matched.
func GenerateTasks(count int) []Task {
	tasks := make([]Task, 0, count)
	for i := 0; i < count; i++ {
		tasks = append(tasks, Task{
			ID:   fmt.Sprintf("task_%d", i),
			Type: taskTypes[i%len(taskTypes)],
		})
	}
	return tasks
}

var playerColors = []string{
	"#ff0000", "#0000ff", "#00ff00", "#ff00ff", "#ffa500",
	"#ffff00", "#000000", "#ffffff", "#800080", "#00ffff",
}

// PlayerColor maps a roster index to its display color.
func PlayerColor(index int) string {
	return playerColors[index%len(playerColors)]
}
