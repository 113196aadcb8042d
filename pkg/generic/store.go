package generic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"k8s.io/klog/v2"

	"gpibgateway/pkg/runtime"
	"gpibgateway/pkg/storage"
)

type Store struct {
	Group        string
	Resource     string
	ResourceType map[string]reflect.Type
	client       storage.Storage
}

func NewStore(group string, resource string, resourceType map[string]runtime.Object) (*Store, error) {
	s := &Store{
		Group:        group,
		Resource:     resource,
		ResourceType: make(map[string]reflect.Type),
	}
	for model, object := range resourceType {
		s.ResourceType[model] = getTypeOfResource(object)
	}

	client := &storage.FsClient{}
	client.Init(storage.StoreGroupFromString[group])
	s.client = client

	return s, nil
}

func (s *Store) Create(obj runtime.Object, model string) (save runtime.Object, returnErr error) {
	key := filepath.Join(s.Resource, fmt.Sprintf("%s.%s", model, obj.GetID()))
	if saved, err := s.client.Create(key, obj); err == nil {
		save = saved.(runtime.Object)
	} else {
		returnErr = err
	}
	return
}

func (s *Store) Update(obj runtime.Object, model string) (update runtime.Object, returnErr error) {
	key := filepath.Join(s.Resource, fmt.Sprintf("%s.%s", model, obj.GetID()))
	if updated, err := s.client.Update(key, obj.GetVersion(), obj); err == nil {
		update = updated.(runtime.Object)
	} else {
		returnErr = err
	}
	return
}

func (s *Store) Delete(obj runtime.Object, model string) (deleted runtime.Object, returnErr error) {
	key := filepath.Join(s.Resource, fmt.Sprintf("%s.%s", model, obj.GetID()))
	if _, err := s.client.Delete(key, obj.GetVersion()); err == nil {
		deleted = obj
	} else {
		returnErr = err
	}
	return
}

func (s *Store) LoadResource() ([]runtime.Object, error) {
	objs, err := s.client.List(s.Resource)
	if err != nil {
		return nil, err
	}

	var ret []runtime.Object
	if files, ok := objs.([]*storage.FileInfo); ok {
		for _, file := range files {
			func() {
				fileName := filepath.Base(file.Path)
				model := fileName[0:strings.LastIndex(fileName, ".")]
				rt, exist := s.ResourceType[model]
				if !exist {
					klog.V(2).InfoS("Unknown resource model", "file", file.Path, "model", model)
					return
				}
				obj := reflect.New(rt).Interface().(runtime.Object)
				f, err := os.Open(file.Path)
				if err != nil {
					klog.V(2).InfoS("Failed to open", "file", file.Path, "resource", s.Resource, "err", err)
					return
				}
				defer f.Close()
				if err = json.NewDecoder(f).Decode(obj); err != nil {
					klog.V(3).InfoS("Failed to unmarshal", "file", file.Path, "resource", s.Resource, "err", err)
					return
				}
				ret = append(ret, obj)
			}()
		}
	}
	return ret, nil
}

func getTypeOfResource(obj runtime.Object) reflect.Type {
	t := reflect.TypeOf(obj)
	if t.Kind() != reflect.Ptr {
		panic("All types must be pointers to structs.")
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		panic("All types must be pointers to structs.")
	}
	return t
}
