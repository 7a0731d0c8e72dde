// Package kubernetes implements runtime.Runtime by launching one Pod per
// container via k8s.io/client-go, the production ContainerRuntime backend
// (spec §4.1 "DOMAIN STACK").
//
// Grounded on the reference stack's internal/games/kubernetes_controller.go:
// same Pod-create + watch-for-ready + delete-with-grace-period shape, with
// limits built as resource.Quantity values. Attach is new (the reference
// controller never attached interactively; it only tailed logs), built on
// client-go's remotecommand executor the way `kubectl attach -it` does,
// including a TerminalSizeQueue so Resize (spec §4.1, best-effort) has
// somewhere real to deliver cols/rows.
package kubernetes

import (
	"context"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/runtime"
)

const containerName = "sandbox"

// Runtime launches sandboxes as Kubernetes Pods.
type Runtime struct {
	clientset *kubernetes.Clientset
	config    *rest.Config
	namespace string
}

// New builds a Runtime from a rest.Config (in-cluster or kubeconfig-loaded
// by the caller) and the namespace to launch Pods in.
func New(config *rest.Config, namespace string) (*Runtime, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "build kubernetes clientset")
	}
	return &Runtime{clientset: clientset, config: config, namespace: namespace}, nil
}

// Handle is a running Pod.
type Handle struct {
	name    string
	running *runtime.RunningFlag
	resize  *resizeQueue
}

func (h *Handle) ID() string    { return h.name }
func (h *Handle) Running() bool { return h.running.Get() }

// Create schedules a Pod running image with stdin/tty open and the given
// resource limits, then waits for it to become Ready.
func (r *Runtime) Create(ctx context.Context, image string, limits runtime.Limits) (runtime.Handle, error) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: "gamebattle-",
			Namespace:    r.namespace,
			Labels:       map[string]string{"app": "gamebattle-sandbox"},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:      containerName,
					Image:     image,
					Stdin:     true,
					StdinOnce: false,
					TTY:       true,
					Resources: resourceRequirements(limits),
				},
			},
		},
	}

	created, err := r.clientset.CoreV1().Pods(r.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "create pod for image %s", image)
	}

	h := &Handle{
		name:    created.Name,
		running: runtime.NewRunningFlag(true),
		resize:  newResizeQueue(),
	}

	if err := r.waitForReady(ctx, h.name, 60*time.Second); err != nil {
		h.running.Set(false)
		return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "pod %s never became ready", h.name)
	}

	return h, nil
}

func resourceRequirements(limits runtime.Limits) corev1.ResourceRequirements {
	reqs := corev1.ResourceRequirements{
		Limits:   corev1.ResourceList{},
		Requests: corev1.ResourceList{},
	}
	if limits.MemoryBytes > 0 {
		q := resource.NewQuantity(limits.MemoryBytes, resource.BinarySI)
		reqs.Limits[corev1.ResourceMemory] = *q
		reqs.Requests[corev1.ResourceMemory] = *q
	}
	if limits.CPUNanos > 0 {
		q := resource.NewScaledQuantity(limits.CPUNanos, resource.Nano)
		reqs.Limits[corev1.ResourceCPU] = *q
		reqs.Requests[corev1.ResourceCPU] = *q
	}
	return reqs
}

func (r *Runtime) waitForReady(ctx context.Context, podName string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := r.clientset.CoreV1().Pods(r.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("metadata.name", podName).String(),
	})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return fmt.Errorf("watch closed before pod %s became ready", podName)
			}
			pod, ok := event.Object.(*corev1.Pod)
			if !ok {
				continue
			}
			switch event.Type {
			case watch.Deleted:
				return fmt.Errorf("pod %s deleted before ready", podName)
			}
			if pod.Status.Phase == corev1.PodFailed {
				return fmt.Errorf("pod %s failed: %s", podName, pod.Status.Reason)
			}
			if pod.Status.Phase == corev1.PodRunning && podReady(pod) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func podReady(pod *corev1.Pod) bool {
	for _, c := range pod.Status.Conditions {
		if c.Type == corev1.PodReady && c.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

// Attach opens an attach stream to the sandbox container, mirroring what
// `kubectl attach -it` does: POST .../attach, run the SPDY executor in a
// background goroutine, and bridge its stdin/stdout through an io.Pipe pair
// so the rest of the arena sees a plain io.Writer/io.Reader.
func (r *Runtime) Attach(ctx context.Context, handle runtime.Handle) (io.Writer, io.Reader, error) {
	h, ok := handle.(*Handle)
	if !ok {
		return nil, nil, arenaerr.New(arenaerr.RuntimeUnavailable, "handle not owned by kubernetes runtime")
	}

	req := r.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(h.name).
		Namespace(r.namespace).
		SubResource("attach")
	req.VersionedParams(&corev1.PodAttachOptions{
		Container: containerName,
		Stdin:     true,
		Stdout:    true,
		Stderr:    true,
		TTY:       true,
	}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(r.config, "POST", req.URL())
	if err != nil {
		return nil, nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "build exec stream for pod %s", h.name)
	}

	stdinReader, stdinWriter := io.Pipe()
	stdoutReader, stdoutWriter := io.Pipe()

	go func() {
		err := executor.StreamWithContext(ctx, remotecommand.StreamOptions{
			Stdin:             stdinReader,
			Stdout:            stdoutWriter,
			Stderr:            stdoutWriter,
			Tty:               true,
			TerminalSizeQueue: h.resize,
		})
		h.running.Set(false)
		_ = stdoutWriter.CloseWithError(err)
	}()

	return stdinWriter, stdoutReader, nil
}

// Start is idempotent: Pods begin running as soon as they are scheduled.
func (r *Runtime) Start(ctx context.Context, handle runtime.Handle) error {
	return nil
}

func (r *Runtime) Resize(ctx context.Context, handle runtime.Handle, cols, rows int) error {
	h, ok := handle.(*Handle)
	if !ok {
		return nil
	}
	h.resize.push(remotecommand.TerminalSize{Width: uint16(cols), Height: uint16(rows)})
	return nil
}

// Stop deletes the Pod with a short grace period, swallowing "not found" at
// every step so repeated or racing Stop calls are safe.
func (r *Runtime) Stop(ctx context.Context, handle runtime.Handle) error {
	h, ok := handle.(*Handle)
	if !ok {
		return nil
	}
	defer h.running.Set(false)

	grace := int64(0)
	err := r.clientset.CoreV1().Pods(r.namespace).Delete(ctx, h.name, metav1.DeleteOptions{
		GracePeriodSeconds: &grace,
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "delete pod %s", h.name)
	}
	return nil
}

// resizeQueue adapts Resize calls to remotecommand.TerminalSizeQueue.
type resizeQueue struct {
	ch chan remotecommand.TerminalSize
}

func newResizeQueue() *resizeQueue {
	return &resizeQueue{ch: make(chan remotecommand.TerminalSize, 1)}
}

func (q *resizeQueue) push(size remotecommand.TerminalSize) {
	select {
	case q.ch <- size:
	default:
		// Best-effort: drop if a resize is already pending delivery.
		select {
		case <-q.ch:
		default:
		}
		select {
		case q.ch <- size:
		default:
		}
	}
}

func (q *resizeQueue) Next() *remotecommand.TerminalSize {
	size, ok := <-q.ch
	if !ok {
		return nil
	}
	return &size
}
