/*
Package sapling grows binary classification trees from labelled
numeric datasets by recursively splitting them on the feature
threshold that maximizes information gain.

Growing is expressed as a queue of tasks, each developing one node of
the tree from the subset of training data that reaches it. Workers
consume tasks with Work until the queue drains, so a tree can be grown
by any number of workers, possibly distributed across processes when
backed by a shared queue and node store.
*/
package sapling

import (
	"context"
	"fmt"
	"time"

	"sapling/dataset"
	"sapling/feature"
	"sapling/queue"
	"sapling/tree"
)

// Seed takes a context, a slice of features, a dataset, a queue and a
// node store and sets everything up so that workers that consume from
// the queue afterwards grow a tree that classifies samples according to
// the training data on the given dataset.
// Specifically it will create the root node of the tree on the
// node store and push a task to branch it out on the queue.
// The function returns the tree that can be grown or an error
// if the dataset has no samples, the node cannot be created on the
// store, or the task pushed to the queue (in the amount of time allowed
// by the given context).
func Seed(ctx context.Context, features []feature.Feature, s dataset.Dataset, q queue.Queue, ns tree.NodeStore) (*tree.Tree, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: cannot grow a tree from an empty dataset", dataset.ErrInvalidInput)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: cannot grow a tree without features", dataset.ErrInvalidInput)
	}
	majority, err := dataset.MajorityLabel(ctx, s)
	if err != nil {
		return nil, err
	}
	n := &tree.Node{}
	err = ns.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	task := &queue.Task{Node: n, Dataset: s, EligibleFeatures: features, FallbackLabel: majority}
	t := tree.New(n.ID, ns, features)
	err = q.Push(ctx, task)
	if err != nil {
		ns.Delete(ctx, n)
		return nil, err
	}
	return t, nil
}

// BranchOut takes a context, a task and a tree, develops the node in
// the task using the task's dataset and eligible features and returns
// the tasks to develop the resulting children nodes or an error.
//
// The node becomes a leaf when its dataset is empty (answering with the
// task's fallback label), when its dataset is pure, when no features
// are eligible or when no partition of its dataset obtains a strictly
// positive information gain. Otherwise the node splits on the best
// partition and one task per side is returned, with the children
// keeping every eligible feature and falling back to the majority
// label of this node's dataset.
func BranchOut(ctx context.Context, task *queue.Task, t *tree.Tree) (tasks []*queue.Task, e error) {
	defer func() {
		err := t.NodeStore.Store(ctx, task.Node)
		if e == nil {
			e = err
		}
	}()
	count, err := task.Dataset.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		task.Node.Prediction = tree.NewFallbackPrediction(task.FallbackLabel)
		return nil, nil
	}
	prediction, err := tree.NewPredictionFromDataset(ctx, task.Dataset)
	if err != nil {
		return nil, err
	}
	task.Node.Prediction = prediction
	labelCounts, err := task.Dataset.LabelCounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(labelCounts) < 2 || len(task.EligibleFeatures) == 0 {
		return nil, nil
	}
	selected, err := BestPartition(ctx, task.Dataset, task.EligibleFeatures)
	if err != nil {
		return nil, err
	}
	if selected == nil {
		return nil, nil
	}
	majority, _ := prediction.Label()
	task.Node.SplitFeature = selected.Feature.Index
	task.Node.SplitThreshold = selected.Threshold
	subtasks := make([]*queue.Task, 0, 2)
	for _, subset := range []dataset.Dataset{selected.Left, selected.Right} {
		n := &tree.Node{ParentID: task.Node.ID}
		err = t.NodeStore.Create(ctx, n)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, &queue.Task{
			Node:             n,
			Dataset:          subset,
			EligibleFeatures: task.EligibleFeatures,
			FallbackLabel:    majority,
		})
	}
	task.Node.LeftID = subtasks[0].Node.ID
	task.Node.RightID = subtasks[1].Node.ID
	return subtasks, nil
}

// Work takes a context, a tree, a queue and an emptyQueueSleep duration
// and enters a loop in which it:
//   - pulls a task from the queue,
//   - branches its node out into new subnodes using BranchOut
//   - pushes the tasks for the new subnodes into the queue
//   - marks the task as completed on the queue
//
// If at some point no task can be pulled from the queue and
// the sum of tasks running and pending on the queue is 0, the
// worker ends returning nil. If no task can be pulled but the
// sum is not 0, then the worker will sleep for the given
// emptyQueueSleep duration and then retry.
//
// Work will return a non-nil error if the given context
// times out or is cancelled, if BranchOut returns a non-nil
// error or if an operation with the given queue returns a
// non-nil error.
func Work(ctx context.Context, t *tree.Tree, q queue.Queue, emptyQueueSleep time.Duration) error {
	for {
		task, tctx, tcf, err := q.Pull(ctx)
		if err != nil {
			return err
		}
		if task == nil {
			p, r, err := q.Count(ctx)
			if err != nil {
				return err
			}
			if p+r == 0 {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(emptyQueueSleep):
			}
			continue
		}
		mctx, cancel := mergeCtxCancel(tctx, ctx)
		err = workTask(mctx, task, t, q)
		cancel()
		tcf()
		if err != nil {
			return err
		}
		err = ctx.Err()
		if err != nil {
			return err
		}
	}
	return nil
}

// Grow takes a context, a slice of features, a dataset, a queue, a node
// store and a number of workers, seeds a tree with Seed and runs the
// given number of workers with Work until every task on the queue has
// been processed. It returns the grown tree or an error if seeding
// fails, any worker fails or the given context times out or is
// cancelled before the tree is complete.
func Grow(ctx context.Context, features []feature.Feature, s dataset.Dataset, q queue.Queue, ns tree.NodeStore, workers int, emptyQueueSleep time.Duration) (*tree.Tree, error) {
	if workers < 1 {
		workers = 1
	}
	t, err := Seed(ctx, features, s, q, ns)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			errs <- Work(ctx, t, q, emptyQueueSleep)
		}()
	}
	for i := 0; i < workers; i++ {
		werr := <-errs
		if werr != nil && err == nil {
			err = werr
			cancel()
		}
	}
	if err != nil {
		return nil, err
	}
	err = queue.WaitFor(ctx, q)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func workTask(ctx context.Context, task *queue.Task, t *tree.Tree, q queue.Queue) error {
	defer func() {
		q.Drop(ctx, task.ID())
	}()
	tasks, err := BranchOut(ctx, task, t)
	if err != nil {
		return err
	}
	for _, st := range tasks {
		err = q.Push(ctx, st)
		if err != nil {
			return err
		}
	}
	return q.Complete(ctx, task.ID())
}

func mergeCtxCancel(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	mctx, cancel := context.WithCancel(ctx1)
	go func() {
		select {
		case <-mctx.Done():
		case <-ctx2.Done():
			cancel()
		}
	}()
	return mctx, cancel
}
