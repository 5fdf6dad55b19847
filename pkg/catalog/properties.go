package catalog

// PropertyType is the value type of a property, used for display and
// input validation.
type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyNumber  PropertyType = "number"
	PropertyBoolean PropertyType = "boolean"
)

// Property is a known property with its current value. An empty Value
// means the backend default applies.
type Property struct {
	Key   string       `json:"key"`
	Value string       `json:"value"`
	Desc  string       `json:"desc,omitempty"`
	Type  PropertyType `json:"type"`
}

var collectionDefaults = []Property{
	{Key: "collection.ttl.seconds", Desc: "Time to live of entities in seconds", Type: PropertyNumber},
	{Key: "collection.autocompaction.enabled", Desc: "Whether auto compaction is enabled", Type: PropertyBoolean},
	{Key: "collection.insertRate.max.mb", Desc: "Maximum insert rate in MB/s", Type: PropertyNumber},
	{Key: "collection.insertRate.min.mb", Desc: "Minimum insert rate in MB/s", Type: PropertyNumber},
	{Key: "collection.upsertRate.max.mb", Desc: "Maximum upsert rate in MB/s", Type: PropertyNumber},
	{Key: "collection.deleteRate.max.mb", Desc: "Maximum delete rate in MB/s", Type: PropertyNumber},
	{Key: "collection.queryRate.max.qps", Desc: "Maximum query rate in QPS", Type: PropertyNumber},
	{Key: "collection.searchRate.max.vps", Desc: "Maximum search rate in VPS", Type: PropertyNumber},
	{Key: "collection.diskProtection.diskQuota.mb", Desc: "Disk quota in MB", Type: PropertyNumber},
	{Key: "partitionkey.isolation", Desc: "Whether partition key isolation is enabled", Type: PropertyBoolean},
	{Key: "mmap.enabled", Desc: "Whether memory mapping is enabled", Type: PropertyBoolean},
}

var databaseDefaults = []Property{
	{Key: "database.replica.number", Desc: "Number of replicas", Type: PropertyNumber},
	{Key: "database.resource_groups", Desc: "Resource groups of the database", Type: PropertyString},
	{Key: "database.diskQuota.mb", Desc: "Disk quota in MB", Type: PropertyNumber},
	{Key: "database.max.collections", Desc: "Maximum number of collections", Type: PropertyNumber},
	{Key: "database.force.deny.writing", Desc: "Whether writes are denied", Type: PropertyBoolean},
	{Key: "database.force.deny.reading", Desc: "Whether reads are denied", Type: PropertyBoolean},
}

// CollectionDefaults returns the known collection properties with no values.
func CollectionDefaults() []Property {
	return append([]Property(nil), collectionDefaults...)
}

// DatabaseDefaults returns the known database properties with no values.
func DatabaseDefaults() []Property {
	return append([]Property(nil), databaseDefaults...)
}

// MergeProperties overlays custom values onto defaults by key. The result
// has exactly the keys of defaults, in their order; custom keys that are
// not known defaults are ignored. A nil custom returns defaults unchanged.
func MergeProperties(defaults []Property, custom []KeyValue) []Property {
	out := make([]Property, len(defaults))
	copy(out, defaults)
	if custom == nil {
		return out
	}
	values := make(map[string]string, len(custom))
	for _, kv := range custom {
		if _, seen := values[kv.Key]; !seen {
			values[kv.Key] = kv.Value
		}
	}
	for i := range out {
		if v, ok := values[out[i].Key]; ok {
			out[i].Value = v
		}
	}
	return out
}

// LookupProperty returns the default entry for key.
func LookupProperty(defaults []Property, key string) (Property, bool) {
	for _, p := range defaults {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}
