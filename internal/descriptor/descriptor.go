// Package descriptor reads the descriptor-set artifacts emitted by generation tasks
package descriptor

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Summary describes the schema captured in a descriptor set
type Summary struct {
	Files    []string `json:"files"`
	Packages []string `json:"packages"`
	Messages int      `json:"messages"`
	Enums    int      `json:"enums"`
	Services []string `json:"services"`
}

// Load reads a FileDescriptorSet from a file
func Load(path string) (*descriptorpb.FileDescriptorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor set: %w", err)
	}

	fds := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, fds); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor set %s: %w", path, err)
	}

	return fds, nil
}

// Write stores a FileDescriptorSet at path
func Write(path string, fds *descriptorpb.FileDescriptorSet) error {
	data, err := proto.Marshal(fds)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor set: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Summarize counts the top-level and nested declarations of a descriptor set
func Summarize(fds *descriptorpb.FileDescriptorSet) Summary {
	s := Summary{
		Files:    []string{},
		Packages: []string{},
		Services: []string{},
	}
	seenPkg := make(map[string]bool)

	for _, file := range fds.GetFile() {
		s.Files = append(s.Files, file.GetName())

		if pkg := file.GetPackage(); pkg != "" && !seenPkg[pkg] {
			seenPkg[pkg] = true
			s.Packages = append(s.Packages, pkg)
		}

		s.Enums += len(file.GetEnumType())
		for _, msg := range file.GetMessageType() {
			countMessage(&s, msg)
		}

		for _, svc := range file.GetService() {
			name := svc.GetName()
			if pkg := file.GetPackage(); pkg != "" {
				name = pkg + "." + name
			}
			s.Services = append(s.Services, name)
		}
	}

	return s
}

func countMessage(s *Summary, msg *descriptorpb.DescriptorProto) {
	s.Messages++
	s.Enums += len(msg.GetEnumType())
	for _, nested := range msg.GetNestedType() {
		countMessage(s, nested)
	}
}
