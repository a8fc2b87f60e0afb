// Package workflow holds the BPMN model that runs the description pipeline
// as five Zeebe service tasks.
package workflow

import (
	_ "embed"
	"encoding/xml"
	"fmt"
)

const (
	ProcessID    = "perfume-description"
	ResourceName = "perfume-description.bpmn"
)

//go:embed perfume-description.bpmn
var definition []byte

// Resource returns a copy of the embedded BPMN document.
func Resource() []byte {
	out := make([]byte, len(definition))
	copy(out, definition)
	return out
}

type ServiceTask struct {
	ID       string
	Name     string
	TaskType string
}

type bpmnDefinitions struct {
	Errors  []bpmnError `xml:"error"`
	Process struct {
		ID           string `xml:"id,attr"`
		ServiceTasks []struct {
			ID             string `xml:"id,attr"`
			Name           string `xml:"name,attr"`
			TaskDefinition struct {
				Type string `xml:"type,attr"`
			} `xml:"extensionElements>taskDefinition"`
		} `xml:"serviceTask"`
		BoundaryEvents []struct {
			AttachedTo string `xml:"attachedToRef,attr"`
			Definition struct {
				ErrorRef string `xml:"errorRef,attr"`
			} `xml:"errorEventDefinition"`
		} `xml:"boundaryEvent"`
	} `xml:"process"`
}

type bpmnError struct {
	ID   string `xml:"id,attr"`
	Code string `xml:"errorCode,attr"`
}

// ServiceTasks lists the service tasks in document order.
func ServiceTasks() ([]ServiceTask, error) {
	defs, err := parse()
	if err != nil {
		return nil, err
	}
	tasks := make([]ServiceTask, 0, len(defs.Process.ServiceTasks))
	for _, st := range defs.Process.ServiceTasks {
		tasks = append(tasks, ServiceTask{ID: st.ID, Name: st.Name, TaskType: st.TaskDefinition.Type})
	}
	return tasks, nil
}

// ErrorCodes lists the BPMN error codes the process catches.
func ErrorCodes() ([]string, error) {
	defs, err := parse()
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(defs.Errors))
	for _, e := range defs.Errors {
		codes = append(codes, e.Code)
	}
	return codes, nil
}

// CaughtErrors maps each service task type to the error codes its boundary
// events catch. A code thrown by a task but missing here leaves the job as an
// incident instead of ending the run.
func CaughtErrors() (map[string][]string, error) {
	defs, err := parse()
	if err != nil {
		return nil, err
	}
	codeByID := make(map[string]string, len(defs.Errors))
	for _, e := range defs.Errors {
		codeByID[e.ID] = e.Code
	}
	typeByTask := make(map[string]string, len(defs.Process.ServiceTasks))
	for _, st := range defs.Process.ServiceTasks {
		typeByTask[st.ID] = st.TaskDefinition.Type
	}

	caught := make(map[string][]string)
	for _, be := range defs.Process.BoundaryEvents {
		taskType, ok := typeByTask[be.AttachedTo]
		if !ok {
			return nil, fmt.Errorf("%s: boundary event attached to unknown task %q", ResourceName, be.AttachedTo)
		}
		code, ok := codeByID[be.Definition.ErrorRef]
		if !ok {
			return nil, fmt.Errorf("%s: boundary event references unknown error %q", ResourceName, be.Definition.ErrorRef)
		}
		caught[taskType] = append(caught[taskType], code)
	}
	return caught, nil
}

func parse() (*bpmnDefinitions, error) {
	var defs bpmnDefinitions
	if err := xml.Unmarshal(definition, &defs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ResourceName, err)
	}
	if defs.Process.ID != ProcessID {
		return nil, fmt.Errorf("%s: unexpected process id %q", ResourceName, defs.Process.ID)
	}
	return &defs, nil
}
