package queue

import (
	"context"
	"testing"
	"time"

	"sapling/tree"
)

func testTask(id string) *Task {
	return &Task{Node: &tree.Node{ID: id}}
}

func TestMemQueuePushPull(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, testTask(id)); err != nil {
			t.Fatal("pushing task:", err)
		}
	}
	pending, running, err := q.Count(ctx)
	if err != nil {
		t.Fatal("counting tasks:", err)
	}
	if pending != 3 || running != 0 {
		t.Error("expected 3 pending and 0 running tasks, got:", pending, "and", running)
	}

	for _, id := range []string{"a", "b", "c"} {
		task, _, tcf, err := q.Pull(ctx)
		if err != nil {
			t.Fatal("pulling task:", err)
		}
		if task == nil {
			t.Fatal("expected a task, got nil")
		}
		if task.ID() != id {
			t.Error("expected task to be:", id, "got:", task.ID())
		}
		tcf()
	}
	pending, running, err = q.Count(ctx)
	if err != nil {
		t.Fatal("counting tasks:", err)
	}
	if pending != 0 || running != 3 {
		t.Error("expected 0 pending and 3 running tasks, got:", pending, "and", running)
	}

	task, _, _, err := q.Pull(ctx)
	if err != nil {
		t.Fatal("pulling from empty queue:", err)
	}
	if task != nil {
		t.Error("expected a nil task from an empty queue, got:", task)
	}
}

func TestMemQueueComplete(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	if err := q.Push(ctx, testTask("a")); err != nil {
		t.Fatal("pushing task:", err)
	}
	task, _, tcf, err := q.Pull(ctx)
	if err != nil {
		t.Fatal("pulling task:", err)
	}
	defer tcf()
	if err := q.Complete(ctx, task.ID()); err != nil {
		t.Fatal("completing task:", err)
	}
	pending, running, err := q.Count(ctx)
	if err != nil {
		t.Fatal("counting tasks:", err)
	}
	if pending != 0 || running != 0 {
		t.Error("expected an empty queue, got:", pending, "pending and", running, "running tasks")
	}
}

func TestMemQueueDrop(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	if err := q.Push(ctx, testTask("a")); err != nil {
		t.Fatal("pushing task:", err)
	}
	task, _, tcf, err := q.Pull(ctx)
	if err != nil {
		t.Fatal("pulling task:", err)
	}
	tcf()
	if err := q.Drop(ctx, task.ID()); err != nil {
		t.Fatal("dropping task:", err)
	}
	pending, running, err := q.Count(ctx)
	if err != nil {
		t.Fatal("counting tasks:", err)
	}
	if pending != 1 || running != 0 {
		t.Error("expected the dropped task to be pending again, got:", pending, "pending and", running, "running tasks")
	}

	task, _, tcf, err = q.Pull(ctx)
	if err != nil {
		t.Fatal("pulling dropped task:", err)
	}
	defer tcf()
	if task == nil || task.ID() != "a" {
		t.Fatal("expected to pull the dropped task again, got:", task)
	}
}

func TestMemQueueDropCompletedTask(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	if err := q.Push(ctx, testTask("a")); err != nil {
		t.Fatal("pushing task:", err)
	}
	task, _, tcf, err := q.Pull(ctx)
	if err != nil {
		t.Fatal("pulling task:", err)
	}
	defer tcf()
	if err := q.Complete(ctx, task.ID()); err != nil {
		t.Fatal("completing task:", err)
	}
	if err := q.Drop(ctx, task.ID()); err != nil {
		t.Fatal("dropping completed task:", err)
	}
	pending, running, err := q.Count(ctx)
	if err != nil {
		t.Fatal("counting tasks:", err)
	}
	if pending != 0 || running != 0 {
		t.Error("expected dropping a completed task to be a no-op, got:", pending, "pending and", running, "running tasks")
	}
}

func TestMemQueueInterleavedPushes(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	// exercise the ring buffer reordering by mixing pushes and pulls
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, testTask(id)); err != nil {
			t.Fatal("pushing task:", err)
		}
	}
	task, _, tcf, err := q.Pull(ctx)
	if err != nil {
		t.Fatal("pulling task:", err)
	}
	tcf()
	q.Complete(ctx, task.ID())
	for _, id := range []string{"d", "e"} {
		if err := q.Push(ctx, testTask(id)); err != nil {
			t.Fatal("pushing task:", err)
		}
	}
	expected := []string{"b", "c", "d", "e"}
	for _, id := range expected {
		task, _, tcf, err := q.Pull(ctx)
		if err != nil {
			t.Fatal("pulling task:", err)
		}
		if task == nil || task.ID() != id {
			t.Fatal("expected task to be:", id, "got:", task)
		}
		tcf()
		q.Complete(ctx, task.ID())
	}
}

func TestWaitFor(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	if err := q.Push(ctx, testTask("a")); err != nil {
		t.Fatal("pushing task:", err)
	}
	go func() {
		task, _, tcf, err := q.Pull(ctx)
		if err != nil || task == nil {
			return
		}
		defer tcf()
		time.Sleep(150 * time.Millisecond)
		q.Complete(ctx, task.ID())
	}()

	if err := WaitFor(ctx, q); err != nil {
		t.Fatal("waiting for queue:", err)
	}
	pending, running, err := q.Count(ctx)
	if err != nil {
		t.Fatal("counting tasks:", err)
	}
	if pending != 0 || running != 0 {
		t.Error("expected an empty queue after waiting, got:", pending, "pending and", running, "running tasks")
	}
}

func TestWaitForCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New()
	defer q.Stop(context.Background())

	if err := q.Push(ctx, testTask("a")); err != nil {
		t.Fatal("pushing task:", err)
	}
	cancel()
	if err := WaitFor(ctx, q); err == nil {
		t.Error("expected an error waiting with a cancelled context")
	}
}
