// Package factory instantiates pluggable modules, such as metrics sinks, from
// configuration. A module is a type name plus a map of raw settings that the
// registered factory decodes into its own typed struct.
//
//	reg := factory.NewRegistry[io.Writer]()
//	_ = reg.Register("file", func(conf map[string]any) (io.Writer, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return os.Create(c.Path)
//	})
package factory
