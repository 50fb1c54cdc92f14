package vm

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

// ClassLoader loads .class bytes by internal class name and parses them.
// It knows nothing about linking or <clinit>; that is ClassRegistry's job.
type ClassLoader interface {
	LoadClass(name string) (*classfile.ClassFile, error)
}

// JmodClassLoader loads bootstrap classes from a JDK jmod file, the
// standard library's on-disk packaging since Java 9.
type JmodClassLoader struct {
	JmodPath  string
	Cache     map[string]*classfile.ClassFile
	zipData   []byte
	zipReader *zip.Reader
}

func NewJmodClassLoader(jmodPath string) *JmodClassLoader {
	return &JmodClassLoader{
		JmodPath: jmodPath,
		Cache:    make(map[string]*classfile.ClassFile),
	}
}

func (cl *JmodClassLoader) ensureZipReader() error {
	if cl.zipReader != nil {
		return nil
	}

	f, err := os.Open(cl.JmodPath)
	if err != nil {
		return fmt.Errorf("jmod: opening %s: %w", cl.JmodPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("jmod: stat %s: %w", cl.JmodPath, err)
	}

	data := make([]byte, stat.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("jmod: reading %s: %w", cl.JmodPath, err)
	}

	cl.zipData = data[4:] // skip "JM\x01\x00" header
	cl.zipReader, err = zip.NewReader(bytes.NewReader(cl.zipData), int64(len(cl.zipData)))
	if err != nil {
		return fmt.Errorf("jmod: opening zip: %w", err)
	}
	return nil
}

func (cl *JmodClassLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, ok := cl.Cache[name]; ok {
		return cf, nil
	}

	if err := cl.ensureZipReader(); err != nil {
		return nil, err
	}

	target := "classes/" + name + ".class"
	for _, file := range cl.zipReader.File {
		if file.Name == target {
			rc, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("jmod: opening %s: %w", target, err)
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("jmod: reading %s: %w", target, err)
			}
			cf, err := classfile.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("jmod: parsing %s: %w", name, err)
			}
			cl.Cache[name] = cf
			return cf, nil
		}
	}

	return nil, fmt.Errorf("jmod: class %s not found in %s", name, cl.JmodPath)
}

// JarClassLoader loads application classes from a plain .jar archive
// (entries at the zip root, unlike a jmod's "classes/" prefix and 4-byte
// "JM\x01\x00" header), for the -j/--jar flag.
type JarClassLoader struct {
	JarPath   string
	Cache     map[string]*classfile.ClassFile
	zipReader *zip.Reader
}

func NewJarClassLoader(jarPath string) *JarClassLoader {
	return &JarClassLoader{
		JarPath: jarPath,
		Cache:   make(map[string]*classfile.ClassFile),
	}
}

func (cl *JarClassLoader) ensureZipReader() error {
	if cl.zipReader != nil {
		return nil
	}
	data, err := os.ReadFile(cl.JarPath)
	if err != nil {
		return fmt.Errorf("jar: reading %s: %w", cl.JarPath, err)
	}
	cl.zipReader, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("jar: opening zip: %w", err)
	}
	return nil
}

func (cl *JarClassLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, ok := cl.Cache[name]; ok {
		return cf, nil
	}
	if err := cl.ensureZipReader(); err != nil {
		return nil, err
	}
	target := name + ".class"
	for _, file := range cl.zipReader.File {
		if file.Name == target {
			rc, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("jar: opening %s: %w", target, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("jar: reading %s: %w", target, err)
			}
			cf, err := classfile.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("jar: parsing %s: %w", name, err)
			}
			cl.Cache[name] = cf
			return cf, nil
		}
	}
	return nil, fmt.Errorf("jar: class %s not found in %s", name, cl.JarPath)
}

// UserClassLoader loads application classes from a directory classpath,
// delegating to a parent loader (normally a JmodClassLoader) first, the way
// the real bootstrap/application delegation model works.
type UserClassLoader struct {
	ClassPath string
	Parent    ClassLoader
	Cache     map[string]*classfile.ClassFile
}

func NewUserClassLoader(classPath string, parent ClassLoader) *UserClassLoader {
	return &UserClassLoader{
		ClassPath: classPath,
		Parent:    parent,
		Cache:     make(map[string]*classfile.ClassFile),
	}
}

func (cl *UserClassLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, ok := cl.Cache[name]; ok {
		return cf, nil
	}
	if cl.Parent != nil {
		if cf, err := cl.Parent.LoadClass(name); err == nil {
			return cf, nil
		}
	}
	path := filepath.Join(cl.ClassPath, name+".class")
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("user: class %s not found: %w", name, err)
	}
	cl.Cache[name] = cf
	return cf, nil
}
