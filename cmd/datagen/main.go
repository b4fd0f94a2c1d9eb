package main

import (
	"log"
	"time"

	"neurocart/internal/datagen"
)

const outDir = "output_csv"

func main() {
	opt := datagen.DefaultOptions(time.Now())
	ds, err := datagen.Generate(opt)
	if err != nil {
		log.Fatal(err)
	}
	if err := datagen.WriteCSV(outDir, ds); err != nil {
		log.Fatal(err)
	}
	log.Printf("[datagen] wrote %d tables to %s: %d orders, %d deliveries, %d tracking rows",
		len(datagen.Tables()), outDir, len(ds.Orders), len(ds.Deliveries), len(ds.Tracking))
}
